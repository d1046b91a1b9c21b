package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/normalize/internal/build"
	"git.home.luguber.info/inful/normalize/internal/buildgraph"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/metrics"
)

// Runner makes goals. *build.Service implements it.
type Runner interface {
	Run(ctx context.Context, req build.Request) (*build.Result, error)
}

// Options configures a Daemon. Zero values disable the matching feature.
type Options struct {
	Dir      string
	Goal     buildgraph.Kind
	BuildDir string

	// Watch lists the directories to watch for changes.
	Watch    []string
	Debounce time.Duration

	Interval time.Duration

	Listen   string
	Registry *prom.Registry

	// OnResult sees every finished run.
	OnResult func(*build.Result, error)
}

// Status is the last finished run, as served on /status.
type Status struct {
	RunID    string    `json:"run_id,omitempty"`
	Trigger  string    `json:"trigger,omitempty"`
	Outcome  string    `json:"outcome,omitempty"`
	Error    string    `json:"error,omitempty"`
	Started  time.Time `json:"started"`
	Duration string    `json:"duration,omitempty"`
	Runs     int       `json:"runs"`
}

// Daemon serializes triggered runs of one goal.
type Daemon struct {
	runner   Runner
	opts     Options
	requests chan build.Trigger

	mu     sync.Mutex // guards status
	status Status
}

// New creates a daemon.
func New(runner Runner, opts Options) *Daemon {
	if opts.Goal == "" {
		opts.Goal = buildgraph.KindTest
	}
	return &Daemon{runner: runner, opts: opts, requests: make(chan build.Trigger, 1)}
}

// Trigger asks for a run. It never blocks: when a run is already queued the
// request is absorbed by it.
func (d *Daemon) Trigger(t build.Trigger) {
	select {
	case d.requests <- t:
	default:
		slog.Debug("Run already queued", "trigger", string(t))
	}
}

// Status returns the last finished run.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Run starts the configured triggers, makes one initial run and blocks until
// ctx is done or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	var watcher *Watcher
	if len(d.opts.Watch) > 0 {
		w, err := NewWatcher(d.opts.Watch, d.opts.BuildDir, d.opts.Debounce, func(path string) {
			slog.Info("Files changed", logfields.Path(path))
			d.Trigger(build.TriggerWatch)
		})
		if err != nil {
			return err
		}
		watcher = w
	}

	var sched *Scheduler
	if d.opts.Interval > 0 {
		s, err := NewScheduler()
		if err != nil {
			watcher.Close()
			return err
		}
		if _, err := s.Every("periodic-"+string(d.opts.Goal), d.opts.Interval, func() {
			d.Trigger(build.TriggerSchedule)
		}); err != nil {
			_ = s.Stop()
			watcher.Close()
			return err
		}
		sched = s
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		d.loop(ctx)
		return nil
	})

	if watcher != nil {
		g.Go(func() error { return watcher.Run(ctx) })
	}

	if sched != nil {
		sched.Start()
		g.Go(func() error {
			<-ctx.Done()
			return sched.Stop()
		})
	}

	if d.opts.Listen != "" {
		srv := &http.Server{Addr: d.opts.Listen, Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			slog.Info("Serving metrics", "addr", d.opts.Listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	d.Trigger(build.TriggerCLI)
	return g.Wait()
}

func (d *Daemon) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-d.requests:
			d.runOnce(ctx, t)
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context, t build.Trigger) {
	res, err := d.runner.Run(ctx, build.Request{Dir: d.opts.Dir, Goal: d.opts.Goal, Trigger: t})

	st := Status{Trigger: string(t)}
	if res != nil {
		st.RunID = res.RunID
		st.Outcome = string(res.Outcome)
		st.Started = res.Started
		st.Duration = res.Duration.Round(time.Millisecond).String()
	}
	if err != nil {
		st.Error = err.Error()
	}
	d.mu.Lock()
	st.Runs = d.status.Runs + 1
	d.status = st
	d.mu.Unlock()

	if d.opts.OnResult != nil {
		d.opts.OnResult(res, err)
	}
}

// Handler serves /metrics, /status and /healthz.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.HTTPHandler(d.opts.Registry))
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(d.Status()); err != nil {
			slog.Warn("Failed to encode status", logfields.Error(err))
		}
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
