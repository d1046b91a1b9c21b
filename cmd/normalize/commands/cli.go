package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/normalize/internal/build"
	"git.home.luguber.info/inful/normalize/internal/config"
	"git.home.luguber.info/inful/normalize/internal/eventstore"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/logfields"
	"git.home.luguber.info/inful/normalize/internal/metrics"
	"git.home.luguber.info/inful/normalize/internal/notify"
)

// Global carries state shared by every subcommand.
type Global struct {
	Stdout io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"normalize.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Discover DiscoverCmd `cmd:"" help:"List the projects and modules of a tree"`
	Manifest ManifestCmd `cmd:"" help:"Show the setup steps declared by a module"`
	Bringup  BringupCmd  `cmd:"" help:"Run the setup steps of every module"`
	Test     TestCmd     `cmd:"" help:"Bring up every module and verify its usage examples"`
	ShTest   ShTestCmd   `cmd:"" name:"sh-test" help:"Verify the shell examples of one documentation file"`
	Doc      DocCmd      `cmd:"" help:"Render the project report"`
	Clean    CleanCmd    `cmd:"" help:"Remove build directories"`
	Chunk    ChunkCmd    `cmd:"" help:"Collapse the unchanged regions of a unified diff"`
	Status   StatusCmd   `cmd:"" help:"List files changed since a release"`
	Audit    AuditCmd    `cmd:"" help:"Assemble (and optionally review) the release audit document"`
	History  HistoryCmd  `cmd:"" help:"Show recent runs"`
	Watch    WatchCmd    `cmd:"" help:"Re-run the tests whenever files change"`
	Daemon   DaemonCmd   `cmd:"" help:"Keep the tree tested and serve metrics"`
	Init     InitCmd     `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.Config)
}

// runtime is the service plus the resources a command must release.
type runtime struct {
	svc      *build.Service
	registry *prom.Registry
	textfile string
	store    *eventstore.SQLiteStore
	pub      notify.Publisher
}

// newRuntime wires the build service to metrics, the history store and the
// event publisher as configured.
func newRuntime(cfg *config.Config) (*runtime, error) {
	rt := &runtime{registry: prom.NewRegistry(), textfile: cfg.Metrics.Textfile}
	rt.svc = build.NewService(cfg).WithRecorder(metrics.NewPrometheusRecorder(rt.registry))

	if cfg.State.Database != "" {
		store, err := eventstore.NewSQLiteStore(cfg.State.Database)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot open run history").
				WithContext(ferrors.ContextPath, cfg.State.Database).
				Build()
		}
		rt.store = store
		rt.svc.WithStore(store)
	}

	pub, err := notify.New(cfg.Events)
	if err != nil {
		// Publishing is optional.
		slog.Warn("Event publishing disabled", logfields.Error(err))
		pub = notify.Nop{}
	}
	rt.pub = pub
	rt.svc.WithPublisher(pub)
	return rt, nil
}

func (rt *runtime) Close() {
	if err := metrics.WriteTextfile(rt.registry, rt.textfile); err != nil {
		slog.Warn("Failed to export metrics", logfields.Path(rt.textfile), logfields.Error(err))
	}
	if err := rt.pub.Close(); err != nil {
		slog.Warn("Failed to close event publisher", logfields.Error(err))
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil {
			slog.Warn("Failed to close run history", logfields.Error(err))
		}
	}
}
