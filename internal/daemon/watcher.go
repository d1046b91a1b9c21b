package daemon

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/normalize/internal/logfields"
)

// Watcher reports debounced changes below a set of directories.
type Watcher struct {
	fs       *fsnotify.Watcher
	buildDir string
	debounce time.Duration
	onChange func(path string)
}

// NewWatcher watches dirs (not recursively) and calls onChange once per burst
// of relevant events, debounce after the last one. Build directories, hidden
// files and lock directories are ignored.
func NewWatcher(dirs []string, buildDir string, debounce time.Duration, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Watcher{fs: fw, buildDir: buildDir, debounce: debounce, onChange: onChange}, nil
}

// Close releases the watcher. It is safe on a nil Watcher.
func (w *Watcher) Close() {
	if w != nil {
		_ = w.fs.Close()
	}
}

// Run delivers changes until ctx is done and then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var (
		fire <-chan time.Time
		last string
	)

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.ignored(ev.Name) {
				continue
			}
			if ev.Op.Has(fsnotify.Create) {
				w.addIfDir(ev.Name)
			}
			slog.Debug("Change detected", logfields.Path(ev.Name), "op", ev.Op.String())
			last = ev.Name
			timer.Reset(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			w.onChange(last)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	return base == w.buildDir ||
		strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, ".lock") ||
		strings.HasSuffix(base, "~")
}

// New sub-directories join the watch set so a freshly created sub-project
// is noticed.
func (w *Watcher) addIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.fs.Add(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to watch new directory", logfields.Path(path), logfields.Error(err))
	}
}
