package harness

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/project"
)

// ModuleReport summarizes the examples of one module.
type ModuleReport struct {
	Module      string
	Total       int
	Passed      int
	NotExecuted int
	Failure     *Result // the first failure, if any

	// Recursive is set when the file was already being tested further up
	// the process tree; nothing was executed.
	Recursive bool
}

// OK reports whether every example passed.
func (r *ModuleReport) OK() bool {
	return r.Failure == nil
}

// Summary is the one-line result.
func (r *ModuleReport) Summary() string {
	failed := 0
	if r.Failure != nil {
		failed = 1
	}
	return fmt.Sprintf("%s: %d/%d passed, %d failed, %d not executed",
		r.Module, r.Passed, r.Total, failed, r.NotExecuted)
}

// Render returns the deterministic content of the module's tested file.
func (r *ModuleReport) Render() string {
	var b strings.Builder
	b.WriteString(r.Summary())
	b.WriteByte('\n')
	if r.Failure != nil {
		fmt.Fprintf(&b, "FAIL %s (%s)\n", r.Failure.Example, r.Failure.Outcome)
		b.WriteString(r.Failure.Diagnostic())
	}
	return b.String()
}

// Err converts a failing report into a classified test error.
func (r *ModuleReport) Err() error {
	if r.OK() {
		return nil
	}
	f := r.Failure
	return ferrors.TestError(fmt.Sprintf("example %s failed (%s)", f.Example, f.Outcome)).
		WithCause(f.Err).
		WithContext(ferrors.ContextOutcome, string(f.Outcome)).
		WithContext(ferrors.ContextOutput, f.Diagnostic()).
		WithContext("line", f.Example.Line).
		Build()
}

// TestModule runs every example of a module in order and stops at the first
// failure; the remaining examples are counted as not executed.
func (r *Runner) TestModule(ctx context.Context, m *project.Module) (*ModuleReport, error) {
	examples, err := Extract(m, r.languages)
	if err != nil {
		return nil, err
	}
	rep := &ModuleReport{Module: m.Name, Total: len(examples)}
	for i, ex := range examples {
		res := r.Run(ctx, ex, m.Dir())
		slog.Debug("Example finished", logfields.Module(m.Name), logfields.Example(ex.Line),
			logfields.Outcome(string(res.Outcome)))
		if !res.Passed() {
			rep.Failure = &res
			rep.NotExecuted = len(examples) - i - 1
			break
		}
		rep.Passed++
	}
	return rep, nil
}

// WriteTested writes the tested file for a report.
func WriteTested(path string, rep *ModuleReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(rep.Render()), 0o644)
}

// TestedPath returns the path of a module's tested file.
func TestedPath(buildDir, module string) string {
	return filepath.Join(buildDir, module+".tested")
}
