package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/normalize/cmd/normalize/commands"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("normalize"),
		kong.Description("Make-like orchestration that brings up modules and verifies their documented usage examples."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Stdout: os.Stdout}, cli)
	adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default())
	if code := adapter.Report(err); code != 0 {
		os.Exit(code)
	}
}
