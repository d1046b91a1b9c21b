package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/normalize/internal/diffchunk"
	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

// ChunkCmd implements the 'chunk' command.
type ChunkCmd struct {
	File  string `arg:"" optional:"" help:"Unified diff file (default: standard input)"`
	Limit int    `help:"Compress removed and added runs until the output fits this many bytes"`
}

func (c *ChunkCmd) Run(g *Global, _ *CLI) error {
	var (
		data []byte
		err  error
	)
	if c.File == "" || c.File == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(c.File)
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read diff").Build()
	}

	out, err := diffchunk.Chunk(string(data))
	if err != nil {
		return err
	}
	if c.Limit > 0 {
		out = diffchunk.Compress(out, c.Limit)
	}
	_, _ = fmt.Fprint(g.out(), out)
	return nil
}
