package commands

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/normalize/internal/build"
)

// DiscoverCmd implements the 'discover' command.
type DiscoverCmd struct {
	Dir     string `arg:"" optional:"" help:"Project directory (default: current directory)" type:"path"`
	Targets bool   `help:"List every target of the build graph instead"`
}

func (c *DiscoverCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	graph, err := build.NewService(cfg).Graph(dirOrCwd(c.Dir))
	if err != nil {
		return err
	}
	w := g.out()

	if c.Targets {
		for _, name := range graph.Names() {
			_, _ = fmt.Fprintln(w, name)
		}
		return nil
	}

	for _, p := range graph.Root.All() {
		prefix := p.Prefix
		if prefix == "" {
			prefix = "."
		}
		_, _ = fmt.Fprintf(w, "%s (%s)\n", strings.TrimSuffix(prefix, "/"), p.Dir)
		for _, m := range p.Modules {
			_, _ = fmt.Fprintf(w, "  %-30s %s\n", m.Name, m.Kind)
		}
	}
	return nil
}
