// Package report renders the project report: what each module is, how to
// install it, how to use it and how its examples fared, for the whole project
// tree in dependency order.
package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/normalize/internal/harness"
	"git.home.luguber.info/inful/normalize/internal/manifest"
	"git.home.luguber.info/inful/normalize/internal/markdown"
	"git.home.luguber.info/inful/normalize/internal/project"
)

// NotTested is shown for modules without a tested file.
const NotTested = "not tested"

// Markdown renders the report of p and its sub-projects, children first.
func Markdown(p *project.Project) (string, error) {
	var b strings.Builder
	for _, q := range p.All() {
		if err := writeProject(&b, q); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func writeProject(b *strings.Builder, p *project.Project) error {
	fmt.Fprintf(b, "# %s\n\n", Title(p))

	if intro := intro(p); intro != "" {
		b.WriteString(intro + "\n\n")
	}

	b.WriteString("## Modules\n\n")
	for _, m := range p.Modules {
		line := fmt.Sprintf("- `%s` (%s)", m.Name, m.Kind)
		if s := summary(m); s != "" {
			line += ": " + s
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	var install, usage strings.Builder
	for _, m := range p.Modules {
		content, err := m.Content()
		if err != nil {
			return err
		}
		man, err := manifest.FromModule(m.Name, content)
		if err != nil {
			return err
		}
		if !man.Empty() {
			fmt.Fprintf(&install, "### %s\n\n```sh\n%s```\n\n", m.Name, man.Documentation())
		}

		examples, err := harness.Inline(m)
		if err != nil {
			return err
		}
		if len(examples) > 0 {
			fmt.Fprintf(&usage, "### %s\n\n```console\n", m.Name)
			for _, ex := range examples {
				usage.WriteString("$ " + strings.ReplaceAll(ex.Invocation, "\n", "\n> ") + "\n")
				usage.WriteString(ex.Expected)
				if ex.Expected != "" && !strings.HasSuffix(ex.Expected, "\n") {
					usage.WriteString("\n")
				}
			}
			usage.WriteString("```\n\n")
		}
	}
	if install.Len() > 0 {
		b.WriteString("## Installation\n\n" + install.String())
	}
	if usage.Len() > 0 {
		b.WriteString("## Usage\n\n" + usage.String())
	}

	b.WriteString("## Test results\n\n```text\n")
	for _, m := range p.Modules {
		res, err := testedContent(p, m)
		if err != nil {
			return err
		}
		b.WriteString(res)
	}
	b.WriteString("```\n\n")
	return nil
}

// Title is the first level-one heading of the project's README, or of its
// first documentation file, or the directory name.
func Title(p *project.Project) string {
	name := filepath.Base(p.Dir)
	if p.Prefix != "" {
		name = strings.TrimSuffix(p.Prefix, "/")
	}
	if m := primaryDoc(p); m != nil {
		if content, err := m.Content(); err == nil {
			if t := markdown.Title(content); t != "" {
				if p.Prefix != "" {
					return name + ": " + t
				}
				return t
			}
		}
	}
	return name
}

func primaryDoc(p *project.Project) *project.Module {
	docs := p.Documentation()
	for _, m := range docs {
		if strings.EqualFold(strings.TrimSuffix(m.Name, filepath.Ext(m.Name)), "readme") {
			return m
		}
	}
	if len(docs) > 0 {
		return docs[0]
	}
	return nil
}

// intro is the first paragraph of the primary documentation file.
func intro(p *project.Project) string {
	m := primaryDoc(p)
	if m == nil {
		return ""
	}
	content, err := m.Content()
	if err != nil {
		return ""
	}
	return markdown.FirstParagraph(content)
}

// summary is the first line of a module header that is not a section.
func summary(m *project.Module) string {
	if m.IsDocumentation() {
		return ""
	}
	content, err := m.Content()
	if err != nil {
		return ""
	}
	for _, l := range manifest.Header(m.Name, content) {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if strings.HasPrefix(l, manifest.DependenciesHeading) || strings.HasPrefix(l, manifest.ExamplesHeading) {
			return ""
		}
		return l
	}
	return ""
}

func testedContent(p *project.Project, m *project.Module) (string, error) {
	data, err := os.ReadFile(harness.TestedPath(p.BuildDir, m.Name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("%s: %s\n", m.Name, NotTested), nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
