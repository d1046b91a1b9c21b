package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManagerLifecycle(t *testing.T) {
	mgr := NewManager(t.TempDir())

	if _, err := mgr.Subdir("early"); err == nil {
		t.Fatal("Subdir before Create should fail")
	}

	dir, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(dir), Prefix) {
		t.Errorf("expected %q prefix, got %s", Prefix, dir)
	}
	again, err := mgr.Create()
	if err != nil || again != dir {
		t.Errorf("second Create should return the same directory, got %s (%v)", again, err)
	}

	sub, err := mgr.Subdir("baseline")
	if err != nil {
		t.Fatalf("Subdir() failed: %v", err)
	}
	if info, err := os.Stat(sub); err != nil || !info.IsDir() {
		t.Fatalf("subdirectory missing: %v", err)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Errorf("workspace should be removed, stat err = %v", err)
	}
	if mgr.Path() != "" {
		t.Errorf("Path() should be empty after cleanup")
	}
}

func TestManagerKeep(t *testing.T) {
	mgr := NewManager(t.TempDir()).Keep()
	dir, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("kept workspace should remain: %v", err)
	}
}

func TestDistinctWorkspaces(t *testing.T) {
	base := t.TempDir()
	a, err := NewManager(base).Create()
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewManager(base).Create()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("workspaces created in the same second must differ: %s", a)
	}
}
