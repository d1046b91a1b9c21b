package project

import (
	"path/filepath"
)

// Project is a directory holding at least one documentation file (or the
// root), with its modules and nested sub-projects.
type Project struct {
	Dir      string // absolute directory
	Prefix   string // namespace prefix: "" for the root, "<rel>/" for children
	BuildDir string // absolute build directory
	Modules  []*Module
	Children []*Project
}

// Target returns the namespaced name of a convenience or file target.
func (p *Project) Target(name string) string {
	return p.Prefix + name
}

// BuildPath returns the absolute path of a file inside the build directory.
func (p *Project) BuildPath(name string) string {
	return filepath.Join(p.BuildDir, name)
}

// Documentation returns the documentation modules in order.
func (p *Project) Documentation() []*Module {
	return p.filter(func(m *Module) bool { return m.Kind == KindDocumentation })
}

// Sources returns the compiled and interpreted modules in order.
func (p *Project) Sources() []*Module {
	return p.filter(func(m *Module) bool { return m.Kind != KindDocumentation })
}

func (p *Project) filter(keep func(*Module) bool) []*Module {
	var out []*Module
	for _, m := range p.Modules {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

// Walk visits children before their parent, in directory order.
func (p *Project) Walk(fn func(*Project) error) error {
	for _, c := range p.Children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return fn(p)
}

// All returns every project of the tree, children first.
func (p *Project) All() []*Project {
	var out []*Project
	_ = p.Walk(func(q *Project) error {
		out = append(out, q)
		return nil
	})
	return out
}

// FindModule locates the project and module owning an absolute file path.
func (p *Project) FindModule(path string) (*Project, *Module, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, nil, err
	}
	for _, q := range p.All() {
		for _, m := range q.Modules {
			if m.Path == abs {
				return q, m, nil
			}
		}
	}
	return nil, nil, ErrModuleNotFound
}
