package build

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/harness"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/observability"
	"git.home.luguber.info/inful/normalize/internal/project"
	"git.home.luguber.info/inful/normalize/internal/report"
)

// ReportMarkdown is the name of the markdown report inside a build directory.
const ReportMarkdown = "README.md"

// Bringup ensures the module's setup steps have run.
func (s *Service) Bringup(ctx context.Context, p *project.Project, m *project.Module) error {
	_, err := s.bringup.Ensure(ctx, p.BuildDir, m)
	return err
}

// BringupValid reports whether the module's bringup record is current.
func (s *Service) BringupValid(p *project.Project, m *project.Module) (bool, error) {
	return s.bringup.Valid(p.BuildDir, m)
}

// Test runs the module's examples. The tested file is written only when every
// example passes; a failing module loses its previous tested file so the next
// run retries it.
func (s *Service) Test(ctx context.Context, p *project.Project, m *project.Module) error {
	rep, err := s.harness.TestModule(ctx, m)
	if err != nil {
		return err
	}
	return s.settleReport(ctx, p, m, rep)
}

// SelfTest verifies the block examples of one documentation file. A nested
// call for a file that is already being tested runs nothing, succeeds and
// leaves the tested file alone.
func (s *Service) SelfTest(ctx context.Context, path string) (*harness.ModuleReport, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "invalid path").Build()
	}
	root, err := s.Discover(filepath.Dir(abs))
	if err != nil {
		return nil, err
	}
	p, m, err := root.FindModule(abs)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNotFound, "not a module of the project").
			WithContext(ferrors.ContextPath, abs).
			Build()
	}
	rep, err := s.harness.TestFile(ctx, m)
	if err != nil {
		return nil, err
	}
	if rep.Recursive {
		return rep, nil
	}
	return rep, s.settleReport(ctx, p, m, rep)
}

func (s *Service) settleReport(ctx context.Context, p *project.Project, m *project.Module, rep *harness.ModuleReport) error {
	if s.onReport != nil {
		s.onReport(rep)
	}
	path := s.TestedPath(p, m)
	if !rep.OK() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			observability.WarnContext(ctx, "Failed to remove stale tested file", logfields.Path(path), logfields.Error(err))
		}
		return rep.Err()
	}
	if err := harness.WriteTested(path, rep); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write tested file").
			WithContext(ferrors.ContextPath, path).
			Build()
	}
	observability.DebugContext(ctx, "Module tested", logfields.Module(m.Name), logfields.Count(rep.Passed))
	return nil
}

// TestedPath returns the tested file of a module.
func (s *Service) TestedPath(p *project.Project, m *project.Module) string {
	return harness.TestedPath(p.BuildDir, m.Name)
}

// Doc renders the project report into the build directory, as markdown and,
// when configured, as a standalone HTML page.
func (s *Service) Doc(ctx context.Context, p *project.Project) error {
	md, err := report.Markdown(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(p.BuildDir, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create build directory").
			WithContext(ferrors.ContextPath, p.BuildDir).
			Build()
	}
	mdPath := p.BuildPath(ReportMarkdown)
	if err := os.WriteFile(mdPath, []byte(md), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write report").
			WithContext(ferrors.ContextPath, mdPath).
			Build()
	}
	if s.cfg.Report.HTML {
		htmlPath := p.BuildPath(s.cfg.Report.File)
		if err := report.WriteHTML(htmlPath, report.Title(p), md); err != nil {
			return err
		}
	}
	observability.InfoContext(ctx, "Report written", logfields.Path(mdPath))
	return nil
}

// Clean removes the project's build directory.
func (s *Service) Clean(ctx context.Context, p *project.Project) error {
	if err := os.RemoveAll(p.BuildDir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to remove build directory").
			WithContext(ferrors.ContextPath, p.BuildDir).
			Build()
	}
	observability.DebugContext(ctx, "Cleaned", logfields.Path(p.BuildDir))
	return nil
}

// ReadReport returns the markdown report of p as written by its last doc run.
func ReadReport(p *project.Project) (string, error) {
	data, err := os.ReadFile(p.BuildPath(ReportMarkdown))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "report not found; run doc first").
			WithContext(ferrors.ContextPath, p.BuildPath(ReportMarkdown)).
			Build()
	}
	return string(data), nil
}
