package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"golang.org/x/net/html"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/markdown"
)

// HTML wraps the rendered report in a standalone page.
func HTML(title, md string) ([]byte, error) {
	body, err := markdown.ToHTML([]byte(md))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryCollaborator, "failed to render report").Build()
	}
	page := fmt.Sprintf("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		html.EscapeString(title), body)
	return []byte(page), nil
}

// WriteHTML renders md to path.
func WriteHTML(path, title, md string) error {
	page, err := HTML(title, md)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.FileSystemError("failed to create report directory").WithCause(err).Build()
	}
	if err := os.WriteFile(path, page, 0o644); err != nil {
		return ferrors.FileSystemError("failed to write report").
			WithCause(err).
			WithContext(ferrors.ContextPath, path).
			Build()
	}
	return nil
}

// Terminal renders md for a terminal of the given width.
func Terminal(md string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryCollaborator, "failed to create terminal renderer").Build()
	}
	out, err := r.Render(md)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryCollaborator, "failed to render report").Build()
	}
	return out, nil
}
