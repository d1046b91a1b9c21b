package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/normalize/internal/config"
)

// Kind classifies a module by what it holds.
type Kind string

const (
	KindCompiled      Kind = "compiled-source"
	KindInterpreted   Kind = "interpreted-source"
	KindDocumentation Kind = "documentation"
)

// Classifier maps file extensions to module kinds.
type Classifier struct {
	byExt map[string]Kind
}

// NewClassifier builds a classifier from the configured extension lists.
func NewClassifier(ext config.ExtensionsConfig) *Classifier {
	c := &Classifier{byExt: make(map[string]Kind)}
	for _, e := range ext.Documentation {
		c.byExt[strings.ToLower(e)] = KindDocumentation
	}
	for _, e := range ext.Interpreted {
		c.byExt[strings.ToLower(e)] = KindInterpreted
	}
	for _, e := range ext.Compiled {
		c.byExt[strings.ToLower(e)] = KindCompiled
	}
	return c
}

// Classify returns the kind of a file name, or false when the file is not a module.
func (c *Classifier) Classify(name string) (Kind, bool) {
	k, ok := c.byExt[strings.ToLower(filepath.Ext(name))]
	return k, ok
}

// Module is one source or documentation file of a project.
type Module struct {
	Name    string // file name relative to the owning project directory
	Path    string // absolute path
	Kind    Kind
	ModTime time.Time

	once    sync.Once
	content []byte
	err     error
}

// NewModule stats path and returns a module of the given kind.
func NewModule(path string, kind Kind) (*Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	return &Module{Name: filepath.Base(abs), Path: abs, Kind: kind, ModTime: info.ModTime()}, nil
}

// Content reads the module once; later calls return the same bytes for the
// remainder of the pass.
func (m *Module) Content() ([]byte, error) {
	m.once.Do(func() {
		m.content, m.err = os.ReadFile(m.Path)
		if m.err != nil {
			m.err = fmt.Errorf("%w: %s: %w", ErrFileReadFailed, m.Path, m.err)
		}
	})
	return m.content, m.err
}

// Dir is the directory holding the module.
func (m *Module) Dir() string {
	return filepath.Dir(m.Path)
}

// IsDocumentation reports whether the module is a documentation file.
func (m *Module) IsDocumentation() bool {
	return m.Kind == KindDocumentation
}
