package harness

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"git.home.luguber.info/inful/normalize/internal/config"
	"git.home.luguber.info/inful/normalize/internal/metrics"
)

// Outcome classifies the result of one example.
type Outcome string

const (
	OutcomePass       Outcome = "pass"
	OutcomeMismatch   Outcome = "mismatch"
	OutcomeExitStatus Outcome = "exit-status"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeError      Outcome = "error"
)

// Result is the outcome of running one example.
type Result struct {
	Example  Example
	Outcome  Outcome
	Output   string // actual combined output; kept on failure
	ExitCode int
	Duration time.Duration
	Err      error // start error for OutcomeError
}

// Passed reports whether the example passed.
func (r Result) Passed() bool {
	return r.Outcome == OutcomePass
}

// Diagnostic describes a failure in a form fit for the tested file. It
// never contains durations.
func (r Result) Diagnostic() string {
	var b strings.Builder
	b.WriteString("$ " + strings.ReplaceAll(r.Example.Invocation, "\n", "\n> ") + "\n")
	switch r.Outcome {
	case OutcomeMismatch:
		b.WriteString("Expected: " + strconv.Quote(r.Example.Expected) + "\n")
		b.WriteString("Received: " + strconv.Quote(r.Output) + "\n")
		b.WriteString(UnifiedDiff(r.Example.Expected, r.Output))
	case OutcomeExitStatus:
		b.WriteString("exit status " + strconv.Itoa(r.ExitCode) + "\n")
		b.WriteString(r.Output)
	case OutcomeTimeout:
		b.WriteString("timed out\n")
		b.WriteString(r.Output)
	case OutcomeError:
		if r.Err != nil {
			b.WriteString(r.Err.Error() + "\n")
		}
	}
	return b.String()
}

// UnifiedDiff renders an expected/received diff.
func UnifiedDiff(expected, received string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(received),
		FromFile: "expected",
		ToFile:   "received",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return diff
}

// Runner executes examples.
type Runner struct {
	shell     string
	timeout   time.Duration
	languages []string
	recorder  metrics.Recorder
}

// NewRunner creates a Runner from the configuration.
func NewRunner(cfg *config.Config, rec metrics.Recorder) *Runner {
	r := &Runner{
		shell:     cfg.Shell,
		timeout:   cfg.Examples.Timeout,
		languages: cfg.Examples.FenceLanguages,
		recorder:  metrics.OrNoop(rec),
	}
	if r.shell == "" {
		r.shell = config.DefaultShell
	}
	if r.timeout <= 0 {
		r.timeout = config.DefaultExampleTimeout
	}
	return r
}

// Run executes one example in dir with dir prepended to PATH.
func (r *Runner) Run(ctx context.Context, ex Example, dir string) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, r.shell, "-c", ex.Invocation)
	cmd.Dir = dir
	cmd.Env = withPath(os.Environ(), dir)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = 500 * time.Millisecond
	configureProcessGroup(cmd)

	start := time.Now()
	err := cmd.Run()
	res := Result{Example: ex, Duration: time.Since(start), Output: out.String()}

	var exitErr *exec.ExitError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		res.Outcome = OutcomeTimeout
		res.ExitCode = -1
	case err != nil && errors.Is(ctx.Err(), context.Canceled):
		res.Outcome = OutcomeError
		res.ExitCode = -1
		res.Err = ctx.Err()
	case errors.As(err, &exitErr):
		res.Outcome = OutcomeExitStatus
		res.ExitCode = exitErr.ExitCode()
	case err != nil:
		res.Outcome = OutcomeError
		res.ExitCode = -1
		res.Err = err
	case res.Output != ex.Expected:
		res.Outcome = OutcomeMismatch
	default:
		res.Outcome = OutcomePass
		res.Output = ""
	}
	r.recorder.IncExampleOutcome(string(res.Outcome))
	return res
}

func withPath(env []string, dir string) []string {
	out := make([]string, 0, len(env)+1)
	path := dir
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, "PATH="); ok {
			if v != "" {
				path = dir + string(filepath.ListSeparator) + v
			}
			continue
		}
		out = append(out, kv)
	}
	return append(out, "PATH="+path)
}
