package vcs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

// Snapshot writes the tree of rev into dir. The repository itself is not
// touched; dir must be empty or missing.
func (r *Repository) Snapshot(rev, dir string) error {
	c, err := r.resolve(rev)
	if err != nil {
		return err
	}
	tree, err := c.Tree()
	if err != nil {
		return ferrors.VCSError("failed to read tree").WithCause(err).Build()
	}
	err = tree.Files().ForEach(func(f *object.File) error {
		return writeFile(dir, f)
	})
	if err != nil {
		return ferrors.VCSError("failed to materialize snapshot").
			WithCause(err).
			WithContext("revision", rev).
			WithContext(ferrors.ContextPath, dir).
			Build()
	}
	return nil
}

func writeFile(dir string, f *object.File) error {
	path := filepath.Join(dir, filepath.FromSlash(f.Name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if f.Mode == filemode.Symlink {
		target, err := f.Contents()
		if err != nil {
			return err
		}
		return os.Symlink(target, path)
	}

	perm := os.FileMode(0o644)
	if f.Mode == filemode.Executable {
		perm = 0o755
	}
	rd, err := f.Reader()
	if err != nil {
		return err
	}
	defer func() { _ = rd.Close() }()

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rd); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
