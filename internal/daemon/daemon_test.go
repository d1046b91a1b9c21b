package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/normalize/internal/build"
	"git.home.luguber.info/inful/normalize/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeRunner struct {
	runs atomic.Int32
	gate chan struct{}
	err  error
}

func (f *fakeRunner) Run(ctx context.Context, req build.Request) (*build.Result, error) {
	f.runs.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}
	out := build.OutcomeSuccess
	if f.err != nil {
		out = build.OutcomeFailed
	}
	return &build.Result{RunID: "run", Outcome: out, Started: time.Now()}, f.err
}

func start(t *testing.T, d *Daemon) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	return func() {
		stop()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("daemon did not stop")
		}
	}
}

func TestTriggersCoalesceWhileRunning(t *testing.T) {
	runner := &fakeRunner{gate: make(chan struct{})}
	d := New(runner, Options{Dir: t.TempDir()})
	stop := start(t, d)
	defer stop()

	require.Eventually(t, func() bool { return runner.runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	for range 5 {
		d.Trigger(build.TriggerWatch)
	}
	close(runner.gate)

	require.Eventually(t, func() bool { return d.Status().Runs == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(2), runner.runs.Load())
	assert.Equal(t, string(build.TriggerWatch), d.Status().Trigger)
}

func TestScheduledRuns(t *testing.T) {
	runner := &fakeRunner{}
	d := New(runner, Options{Dir: t.TempDir(), Interval: 30 * time.Millisecond})
	stop := start(t, d)
	defer stop()

	require.Eventually(t, func() bool { return runner.runs.Load() >= 3 }, 3*time.Second, 10*time.Millisecond)
}

func TestFailedRunIsReported(t *testing.T) {
	runner := &fakeRunner{err: errors.New("example 1 failed")}
	var seen atomic.Int32
	d := New(runner, Options{Dir: t.TempDir(), OnResult: func(res *build.Result, err error) {
		if err != nil && res.Outcome == build.OutcomeFailed {
			seen.Add(1)
		}
	}})
	stop := start(t, d)
	defer stop()

	require.Eventually(t, func() bool { return seen.Load() == 1 }, time.Second, 5*time.Millisecond)
	st := d.Status()
	assert.Equal(t, "failed", st.Outcome)
	assert.Equal(t, "example 1 failed", st.Error)
}

func TestWatcherDebouncesAndIgnoresBuildDir(t *testing.T) {
	dir := t.TempDir()
	var changes atomic.Int32
	w, err := NewWatcher([]string{dir}, "build", 100*time.Millisecond, func(string) { changes.Add(1) })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	require.NoError(t, os.Mkdir(filepath.Join(dir, "build"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "build", "README.md.tested"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "README.md.lock"), 0o755))
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(0), changes.Load())

	for i := range 3 {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte{byte('a' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return changes.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(250 * time.Millisecond)
	assert.Equal(t, int32(1), changes.Load())
}

func TestHandler(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	rec.IncRunOutcome("success")

	d := New(&fakeRunner{}, Options{Registry: reg})
	d.runOnce(t.Context(), build.TriggerSchedule)
	h := d.Handler()

	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var st Status
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &st))
	assert.Equal(t, "schedule", st.Trigger)
	assert.Equal(t, "success", st.Outcome)
	assert.Equal(t, 1, st.Runs)

	resp = httptest.NewRecorder()
	h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "normalize_")
}
