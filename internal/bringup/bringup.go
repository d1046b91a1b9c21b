// Package bringup runs the setup steps a module declares and caches the
// combined output as a record file, so repeated runs perform no steps until
// the module or its derived script changes.
package bringup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/normalize/internal/config"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/manifest"
	"git.home.luguber.info/inful/normalize/internal/metrics"
	"git.home.luguber.info/inful/normalize/internal/project"
)

// Record is the outcome of a successful bringup.
type Record struct {
	Module   string
	Path     string
	Output   string
	Steps    int  // steps executed by this call; zero when Cached
	Cached   bool // the existing record was reused
	Duration time.Duration
}

// Options configures an Executor.
type Options struct {
	Shell     string
	Installer string
	Validity  config.ValidityMode
	Recorder  metrics.Recorder
}

// OptionsFromConfig derives executor options from the configuration.
func OptionsFromConfig(cfg *config.Config, rec metrics.Recorder) Options {
	return Options{
		Shell:     cfg.Shell,
		Installer: cfg.Bringup.Installer,
		Validity:  cfg.Bringup.Validity,
		Recorder:  rec,
	}
}

// Executor performs bringups. It is safe for concurrent use; at most one
// execution per module happens at a time, in-process and across processes.
type Executor struct {
	opts  Options
	group singleflight.Group
}

// New creates an Executor.
func New(opts Options) *Executor {
	if opts.Shell == "" {
		opts.Shell = config.DefaultShell
	}
	if opts.Installer == "" {
		opts.Installer = config.DefaultInstaller
	}
	if opts.Validity == "" {
		opts.Validity = config.ValidityMtime
	}
	opts.Recorder = metrics.OrNoop(opts.Recorder)
	return &Executor{opts: opts}
}

// prepared holds the derived inputs of one module's bringup.
type prepared struct {
	paths    Paths
	manifest *manifest.Manifest
	script   string
	content  []byte
}

func (e *Executor) prepare(buildDir string, m *project.Module) (*prepared, error) {
	content, err := m.Content()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read module").
			WithContext(ferrors.ContextPath, m.Path).
			Build()
	}
	man, err := manifest.FromModule(m.Name, content)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create build directory").
			WithContext(ferrors.ContextPath, buildDir).
			Build()
	}
	p := &prepared{
		paths:    PathsFor(buildDir, m.Name),
		manifest: man,
		script:   man.Script(e.opts.Installer),
		content:  content,
	}
	if changed, err := writeIfChanged(p.paths.Script, []byte(p.script), 0o755); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write bringup script").
			WithContext(ferrors.ContextPath, p.paths.Script).
			Build()
	} else if changed {
		slog.Debug("Bringup script updated", logfields.Path(p.paths.Script))
	}
	return p, nil
}

// Valid reports whether the module's cached record is up to date. The derived
// script is refreshed first so manifest edits invalidate the record.
func (e *Executor) Valid(buildDir string, m *project.Module) (bool, error) {
	p, err := e.prepare(buildDir, m)
	if err != nil {
		return false, err
	}
	return upToDate(e.opts.Validity, p.paths, m.Path, p.script, p.content)
}

// Ensure makes sure the module's bringup record is valid, running the
// declared steps when it is not.
func (e *Executor) Ensure(ctx context.Context, buildDir string, m *project.Module) (*Record, error) {
	p, err := e.prepare(buildDir, m)
	if err != nil {
		return nil, err
	}

	v, err, shared := e.group.Do(p.paths.Record, func() (any, error) {
		return e.ensureLocked(ctx, m, p)
	})
	if err != nil {
		return nil, err
	}
	rec := v.(*Record)
	if shared {
		slog.Debug("Joined in-flight bringup", logfields.Module(m.Name))
	}
	return rec, nil
}

func (e *Executor) ensureLocked(ctx context.Context, m *project.Module, p *prepared) (*Record, error) {
	if rec, ok, err := e.cached(m, p); err != nil || ok {
		return rec, err
	}

	unlock, err := lockFile(p.paths.Lock)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to lock bringup record").
			WithContext(ferrors.ContextPath, p.paths.Lock).
			Build()
	}
	defer unlock()

	// Another process may have finished while we waited for the lock.
	if rec, ok, err := e.cached(m, p); err != nil || ok {
		return rec, err
	}
	return e.run(ctx, m, p)
}

func (e *Executor) cached(m *project.Module, p *prepared) (*Record, bool, error) {
	ok, err := upToDate(e.opts.Validity, p.paths, m.Path, p.script, p.content)
	if err != nil {
		return nil, false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to check bringup record").
			WithContext(ferrors.ContextPath, p.paths.Record).
			Build()
	}
	if !ok {
		return nil, false, nil
	}
	out, err := os.ReadFile(p.paths.Record)
	if err != nil {
		return nil, false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read bringup record").
			WithContext(ferrors.ContextPath, p.paths.Record).
			Build()
	}
	e.opts.Recorder.IncBringup(true)
	slog.Debug("Bringup up to date", logfields.Module(m.Name))
	return &Record{Module: m.Name, Path: p.paths.Record, Output: string(out), Cached: true}, true, nil
}

func (e *Executor) run(ctx context.Context, m *project.Module, p *prepared) (*Record, error) {
	e.opts.Recorder.IncBringup(false)
	start := time.Now()
	var out bytes.Buffer

	slog.Info("Running bringup", logfields.Module(m.Name), logfields.Count(len(p.manifest.Steps)))
	for i, step := range p.manifest.Steps {
		cmdText := step.Shell(e.opts.Installer)
		cmd := exec.CommandContext(ctx, e.opts.Shell, "-c", cmdText)
		cmd.Dir = m.Dir()
		cmd.Stdout = &out
		cmd.Stderr = &out

		stepStart := time.Now()
		err := cmd.Run()
		e.opts.Recorder.ObserveStepDuration(time.Since(stepStart), err == nil)
		if err != nil {
			return nil, e.fail(m, p, i, cmdText, out.Bytes(), err)
		}
		slog.Debug("Bringup step done", logfields.Module(m.Name), logfields.Step(cmdText),
			logfields.DurationMS(float64(time.Since(stepStart).Microseconds())/1000))
	}

	if err := writeAtomic(p.paths.Record, out.Bytes(), 0o644); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write bringup record").
			WithContext(ferrors.ContextPath, p.paths.Record).
			Build()
	}
	if e.opts.Validity == config.ValidityFingerprint {
		if err := writeAtomic(p.paths.Fingerprint, []byte(fingerprint(p.script, p.content)+"\n"), 0o644); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write bringup fingerprint").
				WithContext(ferrors.ContextPath, p.paths.Fingerprint).
				Build()
		}
	}
	_ = removeIfExists(p.paths.Failed)

	return &Record{
		Module:   m.Name,
		Path:     p.paths.Record,
		Output:   out.String(),
		Steps:    len(p.manifest.Steps),
		Duration: time.Since(start),
	}, nil
}

// fail leaves no record behind and keeps the captured output for inspection.
func (e *Executor) fail(m *project.Module, p *prepared, index int, cmdText string, output []byte, cause error) error {
	_ = removeIfExists(p.paths.Record)
	_ = removeIfExists(p.paths.Fingerprint)
	if err := os.WriteFile(p.paths.Failed, output, 0o644); err != nil {
		slog.Warn("Failed to keep bringup output", logfields.Path(p.paths.Failed), logfields.Error(err))
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(cause, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return ferrors.BringupError(fmt.Sprintf("bringup of %s failed at step %d: %s", m.Name, index+1, cmdText)).
		WithCause(cause).
		WithContext(ferrors.ContextOutput, string(output)).
		WithContext(ferrors.ContextTarget, p.paths.Record).
		WithContext("exit_code", exitCode).
		Build()
}

func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
