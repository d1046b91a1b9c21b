package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/normalize/internal/build"
	"git.home.luguber.info/inful/normalize/internal/buildgraph"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// runGoal makes goal (or an explicit target) of dir and prints the outcome.
func runGoal(g *Global, root *CLI, dir string, goal buildgraph.Kind, target string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	p := newPrinter(g.out())
	rt.svc.WithReportHook(p.Report)

	ctx, cancel := signalContext()
	defer cancel()
	res, err := rt.svc.Run(ctx, build.Request{Dir: dir, Goal: goal, Target: target, Trigger: build.TriggerCLI})
	p.Summary(res.Summary)
	return err
}

func dirOrCwd(dir string) string {
	if dir != "" {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}
