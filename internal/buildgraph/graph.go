package buildgraph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"git.home.luguber.info/inful/normalize/internal/bringup"
	"git.home.luguber.info/inful/normalize/internal/project"
)

// Kind classifies a target.
type Kind string

const (
	KindBuild   Kind = "build"
	KindTest    Kind = "test"
	KindDoc     Kind = "doc"
	KindClean   Kind = "clean"
	KindBringup Kind = "bringup"
	KindTested  Kind = "tested"
)

// Convenience lists the per-project convenience operations.
var Convenience = []Kind{KindBuild, KindTest, KindDoc, KindClean}

// ErrUnknownTarget is returned when a target name is not in the graph.
var ErrUnknownTarget = errors.New("unknown target")

// Actions performs the work behind targets.
type Actions interface {
	Bringup(ctx context.Context, p *project.Project, m *project.Module) error
	BringupValid(p *project.Project, m *project.Module) (bool, error)
	Test(ctx context.Context, p *project.Project, m *project.Module) error
	TestedPath(p *project.Project, m *project.Module) string
	Doc(ctx context.Context, p *project.Project) error
	Clean(ctx context.Context, p *project.Project) error
}

// Target is one node of the graph.
type Target struct {
	Name    string
	Kind    Kind
	Project *project.Project
	Module  *project.Module // nil for convenience targets

	Needs []string // normal prerequisites
	After []string // order-only prerequisites

	// UpToDate reports whether the target can be skipped. Nil means the
	// target always runs.
	UpToDate func() (bool, error)
	Action   func(ctx context.Context) error
}

// Graph holds the targets of a project tree.
type Graph struct {
	Root    *project.Project
	targets map[string]*Target
}

// Assemble builds the graph of root and all its sub-projects. Children are
// wired before their parent.
func Assemble(root *project.Project, actions Actions) *Graph {
	g := &Graph{Root: root, targets: make(map[string]*Target)}
	g.assemble(root, actions)
	return g
}

func (g *Graph) assemble(p *project.Project, actions Actions) {
	for _, c := range p.Children {
		g.assemble(c, actions)
	}

	childTargets := func(k Kind) []string {
		out := make([]string, 0, len(p.Children))
		for _, c := range p.Children {
			out = append(out, c.Target(string(k)))
		}
		return out
	}

	var bringups, tested []string
	prevTested := ""
	for _, m := range p.Modules {
		b := g.bringupTarget(p, m, actions)
		t := g.testedTarget(p, m, b.Name, actions)
		if prevTested != "" {
			t.After = append(t.After, prevTested)
		}
		t.After = append(t.After, childTargets(KindTest)...)
		bringups = append(bringups, b.Name)
		tested = append(tested, t.Name)
		prevTested = t.Name
	}

	g.add(&Target{Name: p.Target(string(KindBuild)), Kind: KindBuild, Project: p,
		Needs: bringups, After: childTargets(KindBuild)})
	g.add(&Target{Name: p.Target(string(KindTest)), Kind: KindTest, Project: p,
		Needs: tested, After: childTargets(KindTest)})
	g.add(&Target{Name: p.Target(string(KindDoc)), Kind: KindDoc, Project: p,
		Needs: []string{p.Target(string(KindTest))}, After: childTargets(KindDoc),
		Action: func(ctx context.Context) error { return actions.Doc(ctx, p) }})
	g.add(&Target{Name: p.Target(string(KindClean)), Kind: KindClean, Project: p,
		After:  childTargets(KindClean),
		Action: func(ctx context.Context) error { return actions.Clean(ctx, p) }})
}

// FileTarget returns the name of a module's file target of kind bringup or tested.
func FileTarget(p *project.Project, m *project.Module, k Kind) string {
	return p.Target(filepath.Base(p.BuildDir) + "/" + m.Name + "." + string(k))
}

func (g *Graph) bringupTarget(p *project.Project, m *project.Module, actions Actions) *Target {
	t := &Target{
		Name:     FileTarget(p, m, KindBringup),
		Kind:     KindBringup,
		Project:  p,
		Module:   m,
		UpToDate: func() (bool, error) { return actions.BringupValid(p, m) },
		Action:   func(ctx context.Context) error { return actions.Bringup(ctx, p, m) },
	}
	g.add(t)
	return t
}

func (g *Graph) testedTarget(p *project.Project, m *project.Module, bringupName string, actions Actions) *Target {
	output := actions.TestedPath(p, m)
	t := &Target{
		Name:    FileTarget(p, m, KindTested),
		Kind:    KindTested,
		Project: p,
		Module:  m,
		Needs:   []string{bringupName},
		UpToDate: func() (bool, error) {
			return fileUpToDate(output, m.Path, bringup.PathsFor(p.BuildDir, m.Name).Record)
		},
		Action: func(ctx context.Context) error { return actions.Test(ctx, p, m) },
	}
	g.add(t)
	return t
}

func (g *Graph) add(t *Target) {
	g.targets[t.Name] = t
}

// Target looks up a target by name.
func (g *Graph) Target(name string) (*Target, bool) {
	t, ok := g.targets[name]
	return t, ok
}

// Names returns every target name in sorted order.
func (g *Graph) Names() []string {
	names := make([]string, 0, len(g.targets))
	for n := range g.targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Plan returns the targets needed to make name, prerequisites first, each
// target once. Order-only prerequisites are visited before normal ones.
func (g *Graph) Plan(name string) ([]*Target, error) {
	var (
		plan    []*Target
		visited = make(map[string]bool)
	)
	var visit func(string) error
	visit = func(n string) error {
		if visited[n] {
			return nil
		}
		visited[n] = true
		t, ok := g.targets[n]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownTarget, n)
		}
		for _, dep := range t.After {
			if err := visit(dep); err != nil {
				return err
			}
		}
		for _, dep := range t.Needs {
			if err := visit(dep); err != nil {
				return err
			}
		}
		plan = append(plan, t)
		return nil
	}
	if err := visit(name); err != nil {
		return nil, err
	}
	return plan, nil
}

// fileUpToDate applies make semantics: output exists and no input is newer.
// A missing input makes the output stale.
func fileUpToDate(output string, inputs ...string) (bool, error) {
	out, err := os.Stat(output)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, in := range inputs {
		info, err := os.Stat(in)
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if info.ModTime().After(out.ModTime()) {
			return false, nil
		}
	}
	return true, nil
}
