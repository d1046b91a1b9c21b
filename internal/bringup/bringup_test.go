package bringup

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"git.home.luguber.info/inful/normalize/internal/config"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/project"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const widgetModule = `"""Tool

Dependencies:
widget

Examples:
$ tool --version
1.0
"""
`

func writeModule(t *testing.T, dir, name, content string) *project.Module {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	m, err := project.NewModule(path, project.KindInterpreted)
	require.NoError(t, err)
	return m
}

func newExecutor(mode config.ValidityMode) *Executor {
	return New(Options{Shell: "/bin/sh", Installer: "echo install", Validity: mode})
}

func TestEnsureRunsOnceThenCaches(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	exec := newExecutor(config.ValidityMtime)

	rec, err := exec.Ensure(context.Background(), build, writeModule(t, dir, "tool.py", widgetModule))
	require.NoError(t, err)
	assert.False(t, rec.Cached)
	assert.Equal(t, 1, rec.Steps)
	assert.Equal(t, "install widget\n", rec.Output)

	data, err := os.ReadFile(filepath.Join(build, "tool.py.bringup"))
	require.NoError(t, err)
	assert.Equal(t, "install widget\n", string(data))

	script, err := os.ReadFile(filepath.Join(build, "tool.py.bringup.sh"))
	require.NoError(t, err)
	assert.Contains(t, string(script), "echo install widget\n")

	m, err := project.NewModule(filepath.Join(dir, "tool.py"), project.KindInterpreted)
	require.NoError(t, err)
	rec, err = exec.Ensure(context.Background(), build, m)
	require.NoError(t, err)
	assert.True(t, rec.Cached)
	assert.Zero(t, rec.Steps)
	assert.Equal(t, "install widget\n", rec.Output)
}

func TestEnsureRerunsWhenModuleIsNewer(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	exec := newExecutor(config.ValidityMtime)
	m := writeModule(t, dir, "tool.py", widgetModule)

	_, err := exec.Ensure(context.Background(), build, m)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(m.Path, future, future))

	valid, err := exec.Valid(build, m)
	require.NoError(t, err)
	assert.False(t, valid)

	rec, err := exec.Ensure(context.Background(), build, m)
	require.NoError(t, err)
	assert.False(t, rec.Cached)
	assert.Equal(t, 1, rec.Steps)
}

func TestScriptRewrittenOnlyOnChange(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	exec := newExecutor(config.ValidityMtime)
	m := writeModule(t, dir, "tool.py", widgetModule)

	_, err := exec.Ensure(context.Background(), build, m)
	require.NoError(t, err)
	scriptPath := filepath.Join(build, "tool.py.bringup.sh")
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(scriptPath, past, past))

	_, err = exec.Valid(build, m)
	require.NoError(t, err)
	info, err := os.Stat(scriptPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past), "unchanged script must keep its mtime")

	changed := writeModule(t, dir, "tool.py", strings.Replace(widgetModule, "widget", "widget gadget", 1))
	rec, err := exec.Ensure(context.Background(), build, changed)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Steps)
	assert.Equal(t, "install widget\ninstall gadget\n", rec.Output)
}

func TestEnsureFailureLeavesNoRecord(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	exec := newExecutor(config.ValidityMtime)
	m := writeModule(t, dir, "fail.sh", "#!/bin/sh\n# Dependencies:\n# $ echo out; echo err 1>&2; exit 3\n# $ touch marker\necho body\n")

	_, err := exec.Ensure(context.Background(), build, m)
	require.Error(t, err)

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryBringup, ce.Category())
	out, _ := ce.Output()
	assert.Equal(t, "out\nerr\n", out)
	code, _ := ce.Context().Get("exit_code")
	assert.Equal(t, 3, code)

	assert.NoFileExists(t, filepath.Join(build, "fail.sh.bringup"))
	assert.NoFileExists(t, filepath.Join(dir, "marker"), "steps after the failure must not run")
	failed, err := os.ReadFile(filepath.Join(build, "fail.sh.bringup.failed"))
	require.NoError(t, err)
	assert.Equal(t, "out\nerr\n", string(failed))
}

func TestEnsureZeroSteps(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	exec := newExecutor(config.ValidityMtime)

	rec, err := exec.Ensure(context.Background(), build, writeModule(t, dir, "plain.sh", "echo hi\n"))
	require.NoError(t, err)
	assert.Zero(t, rec.Steps)
	assert.Empty(t, rec.Output)
	assert.FileExists(t, filepath.Join(build, "plain.sh.bringup"))
}

func TestEnsureManifestErrorPropagates(t *testing.T) {
	dir := t.TempDir()
	_, err := newExecutor(config.ValidityMtime).Ensure(context.Background(), filepath.Join(dir, "build"),
		writeModule(t, dir, "bad.sh", "# Dependencies:\n# $\n"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryManifest))
}

func TestEnsureAtMostOnceConcurrently(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	exec := newExecutor(config.ValidityMtime)
	m := writeModule(t, dir, "count.sh", "# Dependencies:\n# $ sleep 0.2; echo run >> runs.txt\n")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := exec.Ensure(context.Background(), build, m)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	runs, err := os.ReadFile(filepath.Join(dir, "runs.txt"))
	require.NoError(t, err)
	assert.Equal(t, "run\n", string(runs))
}

func TestFingerprintValidity(t *testing.T) {
	dir := t.TempDir()
	build := filepath.Join(dir, "build")
	exec := newExecutor(config.ValidityFingerprint)
	m := writeModule(t, dir, "tool.py", widgetModule)

	_, err := exec.Ensure(context.Background(), build, m)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(build, "tool.py.bringup.fingerprint"))

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(m.Path, future, future))
	rec, err := exec.Ensure(context.Background(), build, m)
	require.NoError(t, err)
	assert.True(t, rec.Cached, "touching without content change keeps the record")

	edited := writeModule(t, dir, "tool.py", widgetModule+"# edited\n")
	rec, err = exec.Ensure(context.Background(), build, edited)
	require.NoError(t, err)
	assert.False(t, rec.Cached)
}
