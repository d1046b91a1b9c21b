package vcs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

type fixture struct {
	t    *testing.T
	dir  string
	repo *git.Repository
	wt   *git.Worktree
	when time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	return &fixture{t: t, dir: dir, repo: repo, wt: wt, when: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fixture) write(name, content string) {
	f.t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
	_, err := f.wt.Add(name)
	require.NoError(f.t, err)
}

func (f *fixture) remove(name string) {
	f.t.Helper()
	_, err := f.wt.Remove(name)
	require.NoError(f.t, err)
}

func (f *fixture) commit(msg string) plumbing.Hash {
	f.t.Helper()
	f.when = f.when.Add(time.Hour)
	sig := &object.Signature{Name: "Dev", Email: "dev@example.com", When: f.when}
	h, err := f.wt.Commit(msg, &git.CommitOptions{Author: sig, Committer: sig})
	require.NoError(f.t, err)
	return h
}

func (f *fixture) tag(name string, h plumbing.Hash) {
	f.t.Helper()
	_, err := f.repo.CreateTag(name, h, nil)
	require.NoError(f.t, err)
}

func release(t *testing.T) *fixture {
	f := newFixture(t)
	f.write("README.md", "# Demo\n")
	f.write("old.sh", "#!/bin/sh\n")
	f.tag("v0.1", f.commit("initial"))
	f.write("keep.md", "kept\n")
	f.tag("v0.2", f.commit("second release"))
	f.write("README.md", "# Demo\n\nMore.\n")
	f.write("docs/new.md", "# New\n")
	f.remove("old.sh")
	f.commit("rework docs\n\nLonger body.")
	return f
}

func TestLatestTag(t *testing.T) {
	f := release(t)
	r, err := Open(filepath.Join(f.dir, "docs"))
	require.NoError(t, err)

	tag, err := r.LatestTag()
	require.NoError(t, err)
	assert.Equal(t, "v0.2", tag)
}

func TestLatestTagWithoutTags(t *testing.T) {
	f := newFixture(t)
	f.write("README.md", "x\n")
	f.commit("only")
	r, err := Open(f.dir)
	require.NoError(t, err)

	_, err = r.LatestTag()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTags)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryVCS))
}

func TestChangedFiles(t *testing.T) {
	f := release(t)
	r, err := Open(f.dir)
	require.NoError(t, err)

	changes, err := r.ChangedFiles("v0.2")
	require.NoError(t, err)
	assert.Equal(t, []Change{
		{Path: "README.md", Kind: Modified},
		{Path: "docs/new.md", Kind: Added},
		{Path: "old.sh", Kind: Removed},
	}, changes)

	_, err = r.ChangedFiles("v9")
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryVCS))
}

func TestLogAndLastCommit(t *testing.T) {
	f := release(t)
	r, err := Open(f.dir)
	require.NoError(t, err)

	commits, err := r.Log("v0.1")
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "rework docs", commits[0].Subject())
	assert.Equal(t, "second release", commits[1].Subject())

	last, err := r.LastCommit("keep.md")
	require.NoError(t, err)
	assert.Equal(t, "second release", last.Subject())

	log := FormatLog(commits[:1])
	assert.Contains(t, log, "commit "+commits[0].Hash+"\n")
	assert.Contains(t, log, "Author: Dev <dev@example.com>\n")
	assert.Contains(t, log, "    rework docs\n    \n    Longer body.\n")
}

func TestSnapshot(t *testing.T) {
	f := release(t)
	r, err := Open(f.dir)
	require.NoError(t, err)

	out := t.TempDir()
	require.NoError(t, r.Snapshot("v0.1", out))

	data, err := os.ReadFile(filepath.Join(out, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Demo\n", string(data))
	assert.FileExists(t, filepath.Join(out, "old.sh"))
	assert.NoFileExists(t, filepath.Join(out, "keep.md"))

	current, err := os.ReadFile(filepath.Join(f.dir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Demo\n\nMore.\n", string(current), "worktree is untouched")
}
