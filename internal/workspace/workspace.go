package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/normalize/internal/logfields"
)

// Prefix is the name prefix of every workspace directory.
const Prefix = "normalize-"

// Manager owns one scratch directory.
type Manager struct {
	baseDir string
	dir     string
	keep    bool
}

// NewManager creates a manager rooted at baseDir (the system temp dir when empty).
func NewManager(baseDir string) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	return &Manager{baseDir: baseDir}
}

// Keep makes Cleanup leave the directory in place.
func (m *Manager) Keep() *Manager {
	m.keep = true
	return m
}

// Create makes a fresh timestamped directory and returns its path.
func (m *Manager) Create() (string, error) {
	if m.dir != "" {
		return m.dir, nil
	}
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return "", fmt.Errorf("create workspace base: %w", err)
	}
	// MkdirTemp guarantees uniqueness when two workspaces share a second.
	dir, err := os.MkdirTemp(m.baseDir, Prefix+time.Now().Format("20060102-150405")+"-")
	if err != nil {
		return "", fmt.Errorf("create workspace directory: %w", err)
	}
	m.dir = dir
	slog.Debug("Created workspace", logfields.Path(dir))
	return dir, nil
}

// Path returns the workspace directory, empty before Create.
func (m *Manager) Path() string {
	return m.dir
}

// Subdir creates a directory inside the workspace.
func (m *Manager) Subdir(name string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	sub := filepath.Join(m.dir, name)
	if err := os.MkdirAll(sub, 0o750); err != nil {
		return "", fmt.Errorf("create workspace subdirectory: %w", err)
	}
	return sub, nil
}

// Cleanup removes the workspace directory.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if m.keep {
		slog.Info("Keeping workspace", logfields.Path(m.dir))
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("cleanup workspace: %w", err)
	}
	slog.Debug("Removed workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
