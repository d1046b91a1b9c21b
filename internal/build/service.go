package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/normalize/internal/bringup"
	"git.home.luguber.info/inful/normalize/internal/buildgraph"
	"git.home.luguber.info/inful/normalize/internal/config"
	"git.home.luguber.info/inful/normalize/internal/eventstore"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/harness"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/metrics"
	"git.home.luguber.info/inful/normalize/internal/notify"
	"git.home.luguber.info/inful/normalize/internal/observability"
	"git.home.luguber.info/inful/normalize/internal/project"
)

// Trigger names what started a run.
type Trigger string

const (
	TriggerCLI      Trigger = "cli"
	TriggerWatch    Trigger = "watch"
	TriggerSchedule Trigger = "schedule"
	TriggerAudit    Trigger = "audit"
)

// Outcome is the overall result of a run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Request describes one run.
type Request struct {
	// Dir is the directory to discover the project tree from.
	Dir string

	// Goal is a convenience operation of the root project, e.g. "test".
	// Target, when set, names any target of the graph instead.
	Goal   buildgraph.Kind
	Target string

	Trigger Trigger

	// Observer, if set, sees every target as it settles.
	Observer buildgraph.Observer
}

// Result is the outcome of Service.Run.
type Result struct {
	RunID    string
	Project  *project.Project
	Summary  *buildgraph.Summary // nil when discovery or planning failed
	Outcome  Outcome
	Started  time.Time
	Duration time.Duration
}

// Service runs goals against project trees.
type Service struct {
	cfg       *config.Config
	bringup   *bringup.Executor
	harness   *harness.Runner
	recorder  metrics.Recorder
	store     eventstore.Store
	publisher notify.Publisher
	onReport  func(*harness.ModuleReport)
}

// NewService creates a Service with no history store and no publisher.
func NewService(cfg *config.Config) *Service {
	s := &Service{cfg: cfg, publisher: notify.Nop{}}
	s.WithRecorder(metrics.NoopRecorder{})
	return s
}

// WithRecorder sets the metrics recorder used by every stage.
func (s *Service) WithRecorder(rec metrics.Recorder) *Service {
	s.recorder = metrics.OrNoop(rec)
	s.bringup = bringup.New(bringup.OptionsFromConfig(s.cfg, s.recorder))
	s.harness = harness.NewRunner(s.cfg, s.recorder)
	return s
}

// WithStore records every run in store.
func (s *Service) WithStore(store eventstore.Store) *Service {
	s.store = store
	return s
}

// WithPublisher publishes every finished run.
func (s *Service) WithPublisher(p notify.Publisher) *Service {
	if p == nil {
		p = notify.Nop{}
	}
	s.publisher = p
	return s
}

// WithReportHook calls fn with the report of every tested module.
func (s *Service) WithReportHook(fn func(*harness.ModuleReport)) *Service {
	s.onReport = fn
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Discover assembles the project tree rooted at dir.
func (s *Service) Discover(dir string) (*project.Project, error) {
	root, err := project.Discover(dir, project.OptionsFromConfig(s.cfg))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryDiscovery, "cannot discover project").
			WithContext(ferrors.ContextPath, dir).
			Build()
	}
	return root, nil
}

// Graph discovers dir and assembles its build graph.
func (s *Service) Graph(dir string) (*buildgraph.Graph, error) {
	root, err := s.Discover(dir)
	if err != nil {
		return nil, err
	}
	return buildgraph.Assemble(root, s), nil
}

// Run makes the requested goal. The returned error is the first failing
// target's error; Result is always non-nil.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Started: time.Now(), Outcome: OutcomeFailed}
	defer func() {
		res.Duration = time.Since(res.Started)
		s.recorder.ObserveRunDuration(res.Duration)
		s.recorder.IncRunOutcome(string(res.Outcome))
	}()

	g, err := s.Graph(req.Dir)
	if err != nil {
		return res, err
	}
	res.Project = g.Root

	goal := req.Target
	if goal == "" {
		kind := req.Goal
		if kind == "" {
			kind = buildgraph.KindTest
		}
		goal = g.Root.Target(string(kind))
	}
	if _, ok := g.Target(goal); !ok {
		return res, ferrors.ValidationError(fmt.Sprintf("unknown target %q", goal)).
			WithCause(buildgraph.ErrUnknownTarget).
			WithContext(ferrors.ContextTarget, goal).
			Build()
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerCLI
	}
	ctx = observability.WithTrigger(observability.WithGoal(observability.WithRunID(ctx, res.RunID), goal), string(trigger))
	observability.InfoContext(ctx, "Run started", logfields.Path(g.Root.Dir))
	s.startRun(ctx, eventstore.Run{ID: res.RunID, Goal: goal, Dir: g.Root.Dir, Trigger: string(trigger), Started: res.Started})

	obs := &historyObserver{ctx: ctx, store: s.store, runID: res.RunID, next: req.Observer}
	sum, runErr := buildgraph.NewRunner(g, s.cfg.Bringup.Jobs, s.recorder, obs).Run(ctx, goal)
	res.Summary = sum
	res.Outcome = outcomeOf(runErr)

	finished := time.Now()
	s.finishRun(ctx, res.RunID, res.Outcome, finished)
	s.publish(ctx, req, res, goal, string(trigger), finished)

	if runErr != nil {
		observability.WarnContext(ctx, "Run failed", logfields.Outcome(string(res.Outcome)), logfields.Error(runErr))
	} else {
		observability.InfoContext(ctx, "Run finished",
			slog.Int("ran", sum.Count(buildgraph.StatusRan)),
			slog.Int("up_to_date", sum.Count(buildgraph.StatusUpToDate)))
	}
	return res, runErr
}

func outcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

// History is recorded best effort: a broken store must not fail a run.
func (s *Service) startRun(ctx context.Context, run eventstore.Run) {
	if s.store == nil {
		return
	}
	if err := s.store.StartRun(context.WithoutCancel(ctx), run); err != nil {
		slog.Warn("Failed to record run start", logfields.RunID(run.ID), logfields.Error(err))
	}
}

func (s *Service) finishRun(ctx context.Context, id string, outcome Outcome, at time.Time) {
	if s.store == nil {
		return
	}
	if err := s.store.FinishRun(context.WithoutCancel(ctx), id, string(outcome), at); err != nil {
		slog.Warn("Failed to record run outcome", logfields.RunID(id), logfields.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, req Request, res *Result, goal, trigger string, finished time.Time) {
	ev := notify.RunEvent{
		RunID:    res.RunID,
		Goal:     goal,
		Dir:      res.Project.Dir,
		Trigger:  trigger,
		Outcome:  string(res.Outcome),
		Started:  res.Started,
		Finished: finished,
	}
	if sum := res.Summary; sum != nil {
		ev.Counts = map[string]int{}
		for _, st := range []buildgraph.Status{buildgraph.StatusRan, buildgraph.StatusUpToDate, buildgraph.StatusFailed, buildgraph.StatusSkipped} {
			if n := sum.Count(st); n > 0 {
				ev.Counts[string(st)] = n
			}
		}
		if f := sum.Failure; f != nil {
			ev.Failure = &notify.Failure{Target: f.Target.Name, Message: f.Err.Error()}
		}
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		slog.Warn("Failed to publish run event", logfields.RunID(res.RunID), logfields.Error(err))
	}
}

// historyObserver appends each settled target to the run history before
// handing it to the caller's observer.
type historyObserver struct {
	ctx   context.Context
	store eventstore.Store
	runID string
	next  buildgraph.Observer
}

func (o *historyObserver) OnTarget(r buildgraph.Result) {
	if o.store != nil {
		out := eventstore.TargetOutcome{
			Target:   r.Target.Name,
			Kind:     string(r.Target.Kind),
			Status:   string(r.Status),
			Duration: r.Duration,
			At:       time.Now(),
		}
		if r.Err != nil {
			out.Message = r.Err.Error()
			if ce, ok := ferrors.AsClassified(r.Err); ok {
				if v, ok := ce.Context().GetString(ferrors.ContextOutcome); ok {
					out.Outcome = v
				}
			}
		}
		if err := o.store.AppendOutcome(context.WithoutCancel(o.ctx), o.runID, out); err != nil {
			slog.Warn("Failed to record target outcome", logfields.Target(r.Target.Name), logfields.Error(err))
		}
	}
	if o.next != nil {
		o.next.OnTarget(r)
	}
}
