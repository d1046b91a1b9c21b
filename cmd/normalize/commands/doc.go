package commands

import (
	"fmt"
	"os"
	"strconv"

	"git.home.luguber.info/inful/normalize/internal/build"
	"git.home.luguber.info/inful/normalize/internal/buildgraph"
	"git.home.luguber.info/inful/normalize/internal/report"
)

// DocCmd implements the 'doc' command.
type DocCmd struct {
	Dir  string `arg:"" optional:"" help:"Project directory (default: current directory)" type:"path"`
	Show bool   `help:"Render the report in the terminal afterwards"`
}

func (c *DocCmd) Run(g *Global, root *CLI) error {
	dir := dirOrCwd(c.Dir)
	if err := runGoal(g, root, dir, buildgraph.KindDoc, ""); err != nil {
		return err
	}
	if !c.Show {
		return nil
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	p, err := build.NewService(cfg).Discover(dir)
	if err != nil {
		return err
	}
	md, err := build.ReadReport(p)
	if err != nil {
		return err
	}
	out, err := report.Terminal(md, terminalWidth())
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(g.out(), out)
	return nil
}

func terminalWidth() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 20 {
		return n
	}
	return 80
}
