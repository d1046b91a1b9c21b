package project

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/normalize/internal/config"
	"git.home.luguber.info/inful/normalize/internal/logfields"
)

// Options controls discovery.
type Options struct {
	BuildDir   string
	Denylist   []string
	Classifier *Classifier
}

// OptionsFromConfig derives discovery options from the configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BuildDir:   cfg.BuildDir,
		Denylist:   cfg.Denylist,
		Classifier: NewClassifier(cfg.Extensions),
	}
}

// Discover assembles the project tree rooted at root. The root is always a
// project; sub-directories become projects when they directly hold a
// documentation file.
func Discover(root string, opts Options) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootUnreadable, root, err)
	}
	if opts.BuildDir == "" {
		opts.BuildDir = config.DefaultBuildDir
	}
	if opts.Classifier == nil {
		opts.Classifier = NewClassifier(config.Default().Extensions)
	}
	d := &discoverer{opts: opts, deny: make(map[string]struct{})}
	d.deny[opts.BuildDir] = struct{}{}
	for _, name := range opts.Denylist {
		d.deny[name] = struct{}{}
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRootUnreadable, abs, err)
	}
	p := d.assemble(abs, abs, "", entries)
	slog.Debug("Discovered project tree", logfields.Path(abs), logfields.Count(len(p.All())))
	return p, nil
}

type discoverer struct {
	opts Options
	deny map[string]struct{}
}

// assemble builds the project for dir. namespace is the prefix assigned by the
// caller; children receive the path relative to root plus "/".
func (d *discoverer) assemble(root, dir, namespace string, entries []os.DirEntry) *Project {
	p := &Project{
		Dir:      dir,
		Prefix:   namespace,
		BuildDir: filepath.Join(dir, d.opts.BuildDir),
	}

	var subdirs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if d.denied(name) {
				continue
			}
			subdirs = append(subdirs, name)
			continue
		}
		if !e.Type().IsRegular() {
			continue
		}
		kind, ok := d.opts.Classifier.Classify(name)
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			slog.Debug("Skipping vanished file", logfields.Path(filepath.Join(dir, name)), logfields.Error(err))
			continue
		}
		p.Modules = append(p.Modules, &Module{
			Name:    name,
			Path:    filepath.Join(dir, name),
			Kind:    kind,
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(p.Modules, func(i, j int) bool { return p.Modules[i].Name < p.Modules[j].Name })
	sort.Strings(subdirs)

	for _, name := range subdirs {
		child := filepath.Join(dir, name)
		childEntries, err := os.ReadDir(child)
		if err != nil {
			slog.Debug("Skipping unreadable directory", logfields.Path(child), logfields.Error(err))
			continue
		}
		if !d.qualifies(childEntries) {
			continue
		}
		rel, err := filepath.Rel(root, child)
		if err != nil {
			continue
		}
		p.Children = append(p.Children, d.assemble(root, child, filepath.ToSlash(rel)+"/", childEntries))
	}
	return p
}

func (d *discoverer) denied(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, ok := d.deny[name]
	return ok
}

func (d *discoverer) qualifies(entries []os.DirEntry) bool {
	for _, e := range entries {
		if e.IsDir() || !e.Type().IsRegular() {
			continue
		}
		if kind, ok := d.opts.Classifier.Classify(e.Name()); ok && kind == KindDocumentation {
			return true
		}
	}
	return false
}
