package harness

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/project"
)

// TestFile verifies the examples of a single file. A lock directory next to
// the file is held for the duration. Finding it already present means an
// example is testing its own file: the nested call executes nothing and
// returns a Recursive report without error, so the outer example still
// passes.
func (r *Runner) TestFile(ctx context.Context, m *project.Module) (*ModuleReport, error) {
	lock := m.Path + ".lock"
	if err := os.Mkdir(lock, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			slog.Warn("Recursive usage of lock, skipping", logfields.Module(m.Name), logfields.Path(lock))
			return &ModuleReport{Module: m.Name, Recursive: true}, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create lock directory").
			WithContext(ferrors.ContextPath, lock).
			Build()
	}
	defer func() { _ = os.Remove(lock) }()

	return r.TestModule(ctx, m)
}
