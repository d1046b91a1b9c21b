package commands

import (
	"log/slog"

	"git.home.luguber.info/inful/normalize/internal/build"
	"git.home.luguber.info/inful/normalize/internal/buildgraph"
	"git.home.luguber.info/inful/normalize/internal/daemon"
	"git.home.luguber.info/inful/normalize/internal/logfields"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Dir string `arg:"" optional:"" help:"Project directory (default: current directory)" type:"path"`
}

func (c *WatchCmd) Run(g *Global, root *CLI) error {
	return serve(g, root, dirOrCwd(c.Dir), false, "")
}

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Dir    string `arg:"" optional:"" help:"Project directory (default: current directory)" type:"path"`
	Listen string `help:"Address for /metrics and /status (default: metrics.listen)"`
}

func (c *DaemonCmd) Run(g *Global, root *CLI) error {
	return serve(g, root, dirOrCwd(c.Dir), true, c.Listen)
}

// serve runs the test goal on every change and, in daemon mode, on the
// configured interval with the HTTP endpoints enabled.
func serve(g *Global, root *CLI, dir string, daemonMode bool, listen string) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	project, err := rt.svc.Discover(dir)
	if err != nil {
		return err
	}
	var dirs []string
	for _, p := range project.All() {
		dirs = append(dirs, p.Dir)
	}

	p := newPrinter(g.out())
	rt.svc.WithReportHook(p.Report)
	opts := daemon.Options{
		Dir:      dir,
		Goal:     buildgraph.KindTest,
		BuildDir: cfg.BuildDir,
		Watch:    dirs,
		Debounce: cfg.Daemon.Debounce,
		OnResult: func(res *build.Result, err error) {
			if res != nil {
				p.Summary(res.Summary)
			}
			if err != nil {
				slog.Warn("Run failed", logfields.Error(err))
			}
		},
	}
	if daemonMode {
		opts.Interval = cfg.Daemon.Interval
		opts.Listen = firstNonEmpty(listen, cfg.Metrics.Listen)
		opts.Registry = rt.registry
	}

	ctx, cancel := signalContext()
	defer cancel()
	slog.Info("Watching for changes", logfields.Path(project.Dir), logfields.Count(len(dirs)))
	return daemon.New(rt.svc, opts).Run(ctx)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
