package buildgraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/normalize/internal/bringup"
	"git.home.luguber.info/inful/normalize/internal/project"
)

// fakeActions writes the same files the real actions do without running
// anything.
type fakeActions struct {
	mu       sync.Mutex
	calls    []string
	failTest string

	failBringup string
	slowBringup string
}

func (f *fakeActions) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeActions) Bringup(_ context.Context, p *project.Project, m *project.Module) error {
	f.record("bringup " + p.Prefix + m.Name)
	switch p.Prefix + m.Name {
	case f.failBringup:
		return errors.New("install failed")
	case f.slowBringup:
		time.Sleep(200 * time.Millisecond)
	}
	path := bringup.PathsFor(p.BuildDir, m.Name).Record
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o644)
}

func (f *fakeActions) BringupValid(p *project.Project, m *project.Module) (bool, error) {
	_, err := os.Stat(bringup.PathsFor(p.BuildDir, m.Name).Record)
	return err == nil, nil
}

func (f *fakeActions) Test(_ context.Context, p *project.Project, m *project.Module) error {
	f.record("test " + p.Prefix + m.Name)
	if p.Prefix+m.Name == f.failTest {
		return errors.New("example failed")
	}
	return os.WriteFile(f.TestedPath(p, m), []byte("ok\n"), 0o644)
}

func (f *fakeActions) TestedPath(p *project.Project, m *project.Module) string {
	return filepath.Join(p.BuildDir, m.Name+".tested")
}

func (f *fakeActions) Doc(_ context.Context, p *project.Project) error {
	f.record("doc " + p.Prefix)
	return nil
}

func (f *fakeActions) Clean(_ context.Context, p *project.Project) error {
	f.record("clean " + p.Prefix)
	return os.RemoveAll(p.BuildDir)
}

func (f *fakeActions) reset() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

func tree(t *testing.T) *project.Project {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"README.md":     "# Root\n",
		"tool.sh":       "#!/bin/sh\n",
		"sub/README.md": "# Sub\n",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	p, err := project.Discover(root, project.Options{})
	require.NoError(t, err)
	return p
}

func names(plan []*Target) []string {
	out := make([]string, 0, len(plan))
	for _, t := range plan {
		out = append(out, t.Name)
	}
	return out
}

func TestTargetsAreNamespaced(t *testing.T) {
	g := Assemble(tree(t), &fakeActions{})
	got := g.Names()

	for _, want := range []string{
		"build", "test", "doc", "clean",
		"build/README.md.bringup", "build/README.md.tested",
		"build/tool.sh.bringup", "build/tool.sh.tested",
		"sub/build", "sub/test", "sub/doc", "sub/clean",
		"sub/build/README.md.bringup", "sub/build/README.md.tested",
	} {
		assert.Contains(t, got, want)
	}
	assert.Len(t, got, 14)
}

func TestPlanIsLeavesFirst(t *testing.T) {
	g := Assemble(tree(t), &fakeActions{})

	plan, err := g.Plan("test")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"sub/build/README.md.bringup",
		"sub/build/README.md.tested",
		"sub/test",
		"build/README.md.bringup",
		"build/README.md.tested",
		"build/tool.sh.bringup",
		"build/tool.sh.tested",
		"test",
	}, names(plan))

	plan, err = g.Plan("clean")
	require.NoError(t, err)
	assert.Equal(t, []string{"sub/clean", "clean"}, names(plan))

	_, err = g.Plan("nope")
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	actions := &fakeActions{failTest: "README.md"}
	g := Assemble(tree(t), actions)

	sum, err := NewRunner(g, 1, nil, nil).Run(context.Background(), "test")
	require.Error(t, err)
	require.NotNil(t, sum.Failure)
	assert.Equal(t, "build/README.md.tested", sum.Failure.Target.Name)
	assert.Equal(t, []string{
		"bringup sub/README.md",
		"test sub/README.md",
		"bringup README.md",
		"test README.md",
	}, actions.reset())
	assert.Equal(t, 3, sum.Count(StatusSkipped))
}

func TestRunSkipsUpToDateTargets(t *testing.T) {
	p := tree(t)
	actions := &fakeActions{}
	g := Assemble(p, actions)
	runner := NewRunner(g, 1, nil, nil)

	_, err := runner.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Len(t, actions.reset(), 6)

	sum, err := runner.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Empty(t, actions.reset())
	assert.Equal(t, 6, sum.Count(StatusUpToDate))

	// A newer module source makes only its tested target stale.
	m := p.Modules[1]
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(m.Path, future, future))
	_, err = runner.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"test tool.sh"}, actions.reset())
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(m.Path, past, past))

	// A rebuilt bringup makes its tested target stale.
	require.NoError(t, os.Remove(bringup.PathsFor(p.BuildDir, "README.md").Record))
	_, err = runner.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"bringup README.md", "test README.md"}, actions.reset())
}

func TestOrderOnlyPrerequisiteDoesNotMakeStale(t *testing.T) {
	p := tree(t)
	actions := &fakeActions{}
	runner := NewRunner(Assemble(p, actions), 1, nil, nil)

	_, err := runner.Run(context.Background(), "test")
	require.NoError(t, err)
	actions.reset()

	// The child's tests re-run; the parent's tested targets only waited on them.
	require.NoError(t, os.Remove(filepath.Join(p.Children[0].BuildDir, "README.md.tested")))
	_, err = runner.Run(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"test sub/README.md"}, actions.reset())
}

func TestParallelBringupPhase(t *testing.T) {
	actions := &fakeActions{}
	g := Assemble(tree(t), actions)

	sum, err := NewRunner(g, 4, nil, nil).Run(context.Background(), "build")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"bringup sub/README.md",
		"bringup README.md",
		"bringup tool.sh",
	}, actions.reset())
	assert.Equal(t, 5, sum.Count(StatusRan), "three bringups and two convenience targets")
}

func TestParallelBringupStopsAfterFailure(t *testing.T) {
	actions := &fakeActions{failBringup: "sub/README.md", slowBringup: "README.md"}
	g := Assemble(tree(t), actions)

	sum, err := NewRunner(g, 2, nil, nil).Run(context.Background(), "test")
	require.Error(t, err)
	require.NotNil(t, sum.Failure)
	assert.Equal(t, "sub/build/README.md.bringup", sum.Failure.Target.Name)
	assert.ElementsMatch(t, []string{
		"bringup sub/README.md",
		"bringup README.md",
	}, actions.reset(), "tool.sh was still queued and must not start")
	for _, res := range sum.Results {
		if res.Target.Name == "build/tool.sh.bringup" {
			assert.Equal(t, StatusSkipped, res.Status)
		}
	}
}

func TestDocAndClean(t *testing.T) {
	p := tree(t)
	actions := &fakeActions{}
	runner := NewRunner(Assemble(p, actions), 1, nil, nil)

	_, err := runner.Run(context.Background(), "doc")
	require.NoError(t, err)
	calls := actions.reset()
	assert.Equal(t, "doc sub/", calls[2], "child doc runs before the parent's tests")
	assert.Equal(t, "doc ", calls[len(calls)-1])

	_, err = runner.Run(context.Background(), "clean")
	require.NoError(t, err)
	assert.Equal(t, []string{"clean sub/", "clean "}, actions.reset())
	assert.NoDirExists(t, p.BuildDir)
}
