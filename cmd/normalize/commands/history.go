package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/normalize/internal/eventstore"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"10"`
	RunID string `name:"run" help:"Show the target outcomes of this run"`
}

func (c *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if cfg.State.Database == "" {
		return ferrors.ConfigError("run history is disabled; set state.database").Build()
	}
	store, err := eventstore.NewSQLiteStore(cfg.State.Database)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot open run history").Build()
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := signalContext()
	defer cancel()

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	defer func() { _ = tw.Flush() }()

	if c.RunID != "" {
		outcomes, err := store.Outcomes(ctx, c.RunID)
		if eventstore.IsNotFound(err) {
			return ferrors.NewError(ferrors.CategoryNotFound, "unknown run "+c.RunID).WithCause(err).Build()
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(tw, "TARGET\tSTATUS\tOUTCOME\tDURATION")
		for _, o := range outcomes {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Target, o.Status, dash(o.Outcome), o.Duration.Round(time.Millisecond))
		}
		return nil
	}

	runs, err := store.Runs(ctx, c.Limit)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tGOAL\tTRIGGER\tOUTCOME\tDURATION")
	for _, r := range runs {
		duration := "-"
		if !r.Finished.IsZero() {
			duration = r.Finished.Sub(r.Started).Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Started.Format(time.DateTime), r.Goal, r.Trigger, dash(r.Outcome), duration)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
