package commands

import (
	"git.home.luguber.info/inful/normalize/internal/buildgraph"
)

// BringupCmd implements the 'bringup' command.
type BringupCmd struct {
	Dir    string `arg:"" optional:"" help:"Project directory (default: current directory)" type:"path"`
	Target string `help:"Make this target instead of the build goal"`
}

func (c *BringupCmd) Run(g *Global, root *CLI) error {
	return runGoal(g, root, dirOrCwd(c.Dir), buildgraph.KindBuild, c.Target)
}

// TestCmd implements the 'test' command.
type TestCmd struct {
	Dir    string `arg:"" optional:"" help:"Project directory (default: current directory)" type:"path"`
	Target string `help:"Make this target instead of the test goal"`
}

func (c *TestCmd) Run(g *Global, root *CLI) error {
	return runGoal(g, root, dirOrCwd(c.Dir), buildgraph.KindTest, c.Target)
}

// CleanCmd implements the 'clean' command.
type CleanCmd struct {
	Dir string `arg:"" optional:"" help:"Project directory (default: current directory)" type:"path"`
}

func (c *CleanCmd) Run(g *Global, root *CLI) error {
	return runGoal(g, root, dirOrCwd(c.Dir), buildgraph.KindClean, "")
}
