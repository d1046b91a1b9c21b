// Package harness extracts usage examples from module headers and
// documentation fences, runs them, and compares their output exactly.
package harness

import (
	"errors"
	"fmt"
	"strings"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
	"git.home.luguber.info/inful/normalize/internal/manifest"
	"git.home.luguber.info/inful/normalize/internal/markdown"
	"git.home.luguber.info/inful/normalize/internal/project"
)

// Flavor tells where an example was found.
type Flavor string

const (
	FlavorInline Flavor = "inline"
	FlavorBlock  Flavor = "block"
)

// ErrEmptyPrompt indicates a "$" prompt with no invocation.
var ErrEmptyPrompt = errors.New("prompt without invocation")

// Example is one documented invocation and its exact expected output.
type Example struct {
	Source     string
	Line       int
	Flavor     Flavor
	Invocation string
	Expected   string
}

func (e Example) String() string {
	return fmt.Sprintf("%s:%d", e.Source, e.Line)
}

// Extract returns the examples of a module in document order: the header's
// "Examples:" section first, then, for documentation files, every fenced
// block tagged with one of languages.
func Extract(m *project.Module, languages []string) ([]Example, error) {
	content, err := m.Content()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read module").
			WithContext(ferrors.ContextPath, m.Path).
			Build()
	}

	header := manifest.Header(m.Name, content)
	examples, err := inlineExamples(m.Name, header)
	if err != nil {
		return nil, err
	}

	if m.Kind == project.KindDocumentation {
		fences, err := markdown.ExtractFences(content, markdown.Options{Languages: languages})
		if err != nil {
			return nil, err
		}
		for _, f := range fences {
			found, err := ParseTranscript(m.Name, f.Line, FlavorBlock, f.Content)
			if err != nil {
				return nil, err
			}
			examples = append(examples, found...)
		}
	}
	return examples, nil
}

// Inline returns only the examples of the module header.
func Inline(m *project.Module) ([]Example, error) {
	content, err := m.Content()
	if err != nil {
		return nil, err
	}
	return inlineExamples(m.Name, manifest.Header(m.Name, content))
}

func inlineExamples(source string, header []string) ([]Example, error) {
	start := -1
	for i, l := range header {
		if strings.HasPrefix(strings.TrimSpace(l), manifest.ExamplesHeading) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, nil
	}
	end := len(header)
	for i := start; i < len(header); i++ {
		if strings.HasPrefix(strings.TrimSpace(header[i]), manifest.DependenciesHeading) {
			end = i
			break
		}
	}
	section := header[start:end]
	for len(section) > 0 && strings.TrimSpace(section[len(section)-1]) == "" {
		section = section[:len(section)-1]
	}
	if len(section) == 0 {
		return nil, nil
	}
	// Header lines carry no line numbers of their own; report the offset
	// inside the header, which is stable across runs.
	return ParseTranscript(source, start+1, FlavorInline, strings.Join(section, "\n")+"\n")
}

// ParseTranscript parses a shell transcript. "$ " starts an invocation,
// "> " lines and trailing backslashes continue it, and every following line
// up to the next prompt is expected output. Output lines are joined by "\n",
// so the newline that ends the transcript yields a trailing newline.
func ParseTranscript(source string, firstLine int, flavor Flavor, text string) ([]Example, error) {
	lines := strings.Split(text, "\n")
	var (
		examples []Example
		output   []string
		open     bool
	)
	flush := func() {
		if open {
			examples[len(examples)-1].Expected = strings.Join(output, "\n")
		}
		output = nil
	}

	for i, line := range lines {
		lineNo := firstLine + i
		trimmed := strings.TrimRight(line, " \t\r")
		switch {
		case trimmed == "$" || strings.HasPrefix(line, "$ "):
			invocation := strings.TrimSpace(strings.TrimPrefix(trimmed, "$"))
			if invocation == "" {
				return nil, ferrors.TestError(fmt.Sprintf("empty prompt at %s:%d", source, lineNo)).
					WithCause(ErrEmptyPrompt).
					WithContext(ferrors.ContextOutcome, string(OutcomeError)).
					Build()
			}
			flush()
			examples = append(examples, Example{Source: source, Line: lineNo, Flavor: flavor, Invocation: invocation})
			open = true
		case open && len(output) == 0 && strings.HasPrefix(line, "> "):
			examples[len(examples)-1].Invocation += "\n" + strings.TrimPrefix(line, "> ")
		case open && len(output) == 0 && strings.HasSuffix(examples[len(examples)-1].Invocation, `\`):
			examples[len(examples)-1].Invocation += "\n" + line
		case open:
			output = append(output, line)
		}
	}
	flush()
	return examples, nil
}
