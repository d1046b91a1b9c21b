package buildgraph

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/metrics"
)

// Status is the outcome of one target in a run.
type Status string

const (
	StatusRan      Status = "ran"
	StatusUpToDate Status = "up-to-date"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped" // not attempted after an earlier failure
)

// Result records what happened to one target.
type Result struct {
	Target   *Target
	Status   Status
	Duration time.Duration
	Err      error
}

// Summary is the outcome of Runner.Run.
type Summary struct {
	Goal    string
	Results []Result // plan order
	Failure *Result  // first failed target, if any
}

// OK reports whether every target succeeded.
func (s *Summary) OK() bool {
	return s.Failure == nil
}

// Count returns the number of results with the given status.
func (s *Summary) Count(st Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Status == st {
			n++
		}
	}
	return n
}

// Observer is notified after each target settles.
type Observer interface {
	OnTarget(r Result)
}

// Runner executes plans.
type Runner struct {
	graph    *Graph
	jobs     int
	recorder metrics.Recorder
	observer Observer
}

// NewRunner creates a Runner. jobs above one lets the bringup targets of a
// plan run concurrently before everything else.
func NewRunner(g *Graph, jobs int, rec metrics.Recorder, obs Observer) *Runner {
	if jobs < 1 {
		jobs = 1
	}
	return &Runner{graph: g, jobs: jobs, recorder: metrics.OrNoop(rec), observer: obs}
}

// Run makes the named target. It stops at the first failing target; later
// targets of the plan are reported as skipped. The returned error is the
// first failure's error.
func (r *Runner) Run(ctx context.Context, goal string) (*Summary, error) {
	plan, err := r.graph.Plan(goal)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Goal: goal, Results: make([]Result, len(plan))}
	rebuilt := make(map[string]bool)
	done := make([]bool, len(plan))

	if r.jobs > 1 {
		r.bringupPhase(ctx, plan, sum.Results, done)
	}

	for i, t := range plan {
		switch {
		case done[i]:
		case sum.Failure != nil:
			sum.Results[i] = Result{Target: t, Status: StatusSkipped}
		default:
			sum.Results[i] = r.make(ctx, t, rebuilt)
		}
		res := &sum.Results[i]
		if res.Status == StatusRan {
			rebuilt[t.Name] = true
		}
		if res.Status == StatusFailed && sum.Failure == nil {
			sum.Failure = res
		}
		r.notify(*res)
	}

	if sum.Failure != nil {
		return sum, sum.Failure.Err
	}
	return sum, nil
}

// bringupPhase makes the plan's bringup targets with at most r.jobs running
// at once. Bringups have no prerequisites, so any order is valid. After the
// first failure no further bringup is started; those still queued are
// reported as skipped while the ones already running finish.
func (r *Runner) bringupPhase(ctx context.Context, plan []*Target, results []Result, done []bool) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
	for i, t := range plan {
		if t.Kind != KindBringup {
			continue
		}
		done[i] = true
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = Result{Target: t, Status: StatusSkipped}
				return nil
			}
			results[i] = r.make(ctx, t, nil)
			if results[i].Status == StatusFailed {
				return results[i].Err
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Runner) make(ctx context.Context, t *Target, rebuilt map[string]bool) Result {
	if err := ctx.Err(); err != nil {
		return r.settle(Result{Target: t, Status: StatusFailed, Err: err})
	}

	stale, err := r.stale(t, rebuilt)
	if err != nil {
		return r.settle(Result{Target: t, Status: StatusFailed, Err: err})
	}
	if !stale {
		slog.Debug("Target up to date", logfields.Target(t.Name))
		return r.settle(Result{Target: t, Status: StatusUpToDate})
	}

	start := time.Now()
	if t.Action != nil {
		slog.Debug("Making target", logfields.Target(t.Name))
		err = t.Action(ctx)
	}
	res := Result{Target: t, Status: StatusRan, Duration: time.Since(start)}
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
	}
	return r.settle(res)
}

func (r *Runner) stale(t *Target, rebuilt map[string]bool) (bool, error) {
	if t.UpToDate == nil {
		return true, nil
	}
	for _, dep := range t.Needs {
		if rebuilt[dep] {
			return true, nil
		}
	}
	ok, err := t.UpToDate()
	return !ok, err
}

func (r *Runner) settle(res Result) Result {
	stage := string(res.Target.Kind)
	switch res.Status {
	case StatusFailed:
		label := metrics.ResultFailed
		if errors.Is(res.Err, context.Canceled) || errors.Is(res.Err, context.DeadlineExceeded) {
			label = metrics.ResultCanceled
		}
		r.recorder.IncStageResult(stage, label)
		slog.Debug("Target failed", logfields.Target(res.Target.Name), logfields.Error(res.Err))
	case StatusRan:
		r.recorder.IncStageResult(stage, metrics.ResultSuccess)
	}
	if res.Status == StatusRan || res.Status == StatusFailed {
		r.recorder.ObserveStageDuration(stage, res.Duration)
	}
	return res
}

func (r *Runner) notify(res Result) {
	if r.observer != nil {
		r.observer.OnTarget(res)
	}
}
