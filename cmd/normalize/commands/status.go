package commands

import (
	"errors"
	"fmt"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/vcs"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	Dir      string `arg:"" optional:"" help:"Directory inside the repository (default: current directory)" type:"path"`
	Baseline string `help:"Release to compare against (default: latest tag)"`
}

func (c *StatusCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	repo, err := vcs.Open(dirOrCwd(c.Dir))
	if err != nil {
		return err
	}
	baseline := c.Baseline
	if baseline == "" {
		baseline = cfg.Audit.Baseline
	}
	if baseline == "" {
		baseline, err = repo.LatestTag()
		if errors.Is(err, vcs.ErrNoTags) {
			return ferrors.ValidationError("no baseline given and the repository has no tags").WithCause(err).Build()
		}
		if err != nil {
			return err
		}
	}

	changes, err := repo.ChangedFiles(baseline)
	if err != nil {
		return err
	}
	w := g.out()
	_, _ = fmt.Fprintf(w, "Changes since %s:\n", baseline)
	if len(changes) == 0 {
		newPrinter(w).Muted("  (none)")
		return nil
	}
	for _, ch := range changes {
		_, _ = fmt.Fprintf(w, "  %-9s %s\n", ch.Kind, ch.Path)
	}
	return nil
}
