// Package eventstore keeps the history of runs: when each run happened, what
// it was asked to make, and the outcome of every target it touched.
package eventstore

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run is one invocation of a goal.
type Run struct {
	ID       string
	Goal     string
	Dir      string
	Trigger  string // cli, watch, schedule
	Started  time.Time
	Finished time.Time // zero while running
	Outcome  string    // success, failed, canceled; empty while running
}

// TargetOutcome is the settled state of one target in a run.
type TargetOutcome struct {
	Target   string
	Kind     string
	Status   string // ran, up-to-date, failed, skipped
	Outcome  string // example outcome for failed test targets
	Duration time.Duration
	Message  string
	At       time.Time
}

// Store persists run history.
type Store interface {
	StartRun(ctx context.Context, run Run) error
	FinishRun(ctx context.Context, id, outcome string, finished time.Time) error
	AppendOutcome(ctx context.Context, runID string, o TargetOutcome) error
	Runs(ctx context.Context, limit int) ([]Run, error)
	Outcomes(ctx context.Context, runID string) ([]TargetOutcome, error)
	Close() error
}
