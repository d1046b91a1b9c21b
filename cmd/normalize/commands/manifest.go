package commands

import (
	"fmt"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/manifest"
)

// ManifestCmd implements the 'manifest' command.
type ManifestCmd struct {
	File   string `arg:"" help:"Module file" type:"existingfile"`
	Script bool   `help:"Print the bringup shell script" xor:"format"`
	Doc    bool   `help:"Print the Dependencies section" xor:"format"`
}

func (c *ManifestCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(c.File)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read module").
			WithContext(ferrors.ContextPath, c.File).
			Build()
	}
	m, err := manifest.FromModule(filepath.Base(c.File), content)
	if err != nil {
		return err
	}

	w := g.out()
	switch {
	case c.Script:
		_, _ = fmt.Fprint(w, m.Script(cfg.Bringup.Installer))
	case c.Doc:
		_, _ = fmt.Fprint(w, m.Documentation())
	default:
		for i, s := range m.Steps {
			line := fmt.Sprintf("%d. %s: %s", i+1, s.Kind, s.Text)
			if s.Comment != "" {
				line += "  # " + s.Comment
			}
			_, _ = fmt.Fprintln(w, line)
		}
	}
	return nil
}
