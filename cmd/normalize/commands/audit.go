package commands

import (
	"fmt"
	"os"

	"git.home.luguber.info/inful/normalize/internal/build"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

// AuditCmd implements the 'audit' command.
type AuditCmd struct {
	Dir           string `arg:"" optional:"" help:"Project directory (default: current directory)" type:"path"`
	Baseline      string `help:"Release to compare against (default: audit.baseline, then the latest tag)"`
	Review        bool   `help:"Send the document to the configured review service and append its answer"`
	Output        string `short:"o" help:"Write the document to this file instead of standard output" type:"path"`
	Workspace     string `help:"Directory for the baseline snapshot (default: system temp dir)" type:"path"`
	KeepWorkspace bool   `name:"keep-workspace" help:"Leave the baseline snapshot in place"`
}

func (c *AuditCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := signalContext()
	defer cancel()
	doc, err := rt.svc.Audit(ctx, build.AuditRequest{
		Dir:           dirOrCwd(c.Dir),
		Baseline:      c.Baseline,
		Review:        c.Review,
		Workspace:     c.Workspace,
		KeepWorkspace: c.KeepWorkspace,
	})
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, _ = fmt.Fprint(g.out(), doc)
		return nil
	}
	if err := os.WriteFile(c.Output, []byte(doc), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot write audit document").
			WithContext(ferrors.ContextPath, c.Output).
			Build()
	}
	return nil
}
