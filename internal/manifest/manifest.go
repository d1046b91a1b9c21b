// Package manifest extracts the setup steps a module declares in the
// "Dependencies:" section of its header and renders them back as a shell
// script or as documentation.
package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

// Section headings recognized inside a module header.
const (
	DependenciesHeading = "Dependencies:"
	ExamplesHeading     = "Examples:"
)

var (
	// ErrBarePrompt indicates a "$" marker with no command after it.
	ErrBarePrompt = errors.New("prompt without command")

	// ErrOrphanContinuation indicates a "> " line with no command to continue.
	ErrOrphanContinuation = errors.New("continuation without command")
)

// StepKind distinguishes shell commands from package references.
type StepKind int

const (
	StepCommand StepKind = iota
	StepPackage
)

func (k StepKind) String() string {
	if k == StepPackage {
		return "package"
	}
	return "command"
}

// Step is one setup action. A command may span several lines.
type Step struct {
	Kind    StepKind
	Text    string
	Comment string
}

// Shell returns the shell text that performs the step.
func (s Step) Shell(installer string) string {
	if s.Kind == StepPackage {
		return installer + " " + shellQuote(s.Text)
	}
	return s.Text
}

// Manifest is the ordered list of setup steps of one module.
type Manifest struct {
	Steps []Step
}

// Empty reports whether the manifest declares no steps.
func (m *Manifest) Empty() bool {
	return m == nil || len(m.Steps) == 0
}

// FromModule extracts the manifest from the header of a file.
func FromModule(name string, content []byte) (*Manifest, error) {
	m, err := Extract(Header(name, content))
	if err != nil {
		var ce *ferrors.ClassifiedError
		if errors.As(err, &ce) {
			return nil, ce.WithContext(ferrors.ContextPath, name)
		}
		return nil, err
	}
	return m, nil
}

var commentPattern = regexp.MustCompile(`(^|\s+)#\s?(.*)$`)

func splitComment(line string) (string, string) {
	loc := commentPattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return strings.TrimRight(line, " \t"), ""
	}
	return strings.TrimRight(line[:loc[0]], " \t"), strings.TrimSpace(line[loc[4]:loc[5]])
}

// Section returns the non-blank lines of the named section of a header. The
// section starts after the heading line and runs to the other heading or the
// end of the header; blank lines inside it are skipped.
func Section(header []string, heading, stop string) []string {
	start := -1
	var first string
	for i, l := range header {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, heading) {
			start = i + 1
			first = strings.TrimSpace(strings.TrimPrefix(t, heading))
			break
		}
	}
	if start < 0 {
		return nil
	}
	var out []string
	if first != "" {
		out = append(out, first)
	}
	for _, l := range header[start:] {
		t := strings.TrimSpace(l)
		if stop != "" && strings.HasPrefix(t, stop) {
			break
		}
		if t == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Extract parses the "Dependencies:" section of header lines. A header
// without the section yields an empty manifest.
func Extract(header []string) (*Manifest, error) {
	m := &Manifest{}
	lastCommand := -1
	for n, raw := range Section(header, DependenciesHeading, ExamplesHeading) {
		line, comment := splitComment(strings.TrimSpace(raw))
		switch {
		case line == "$":
			return nil, lineError(ErrBarePrompt, n+1, raw)
		case strings.HasPrefix(line, "$ "):
			text := strings.TrimSpace(line[2:])
			if text == "" {
				return nil, lineError(ErrBarePrompt, n+1, raw)
			}
			m.Steps = append(m.Steps, Step{Kind: StepCommand, Text: text, Comment: comment})
			lastCommand = len(m.Steps) - 1
		case line == ">" || strings.HasPrefix(line, "> "):
			if lastCommand < 0 || lastCommand != len(m.Steps)-1 {
				return nil, lineError(ErrOrphanContinuation, n+1, raw)
			}
			m.Steps[lastCommand] = continueStep(m.Steps[lastCommand], strings.TrimPrefix(strings.TrimPrefix(line, ">"), " "), comment)
		case lastCommand >= 0 && lastCommand == len(m.Steps)-1 && strings.HasSuffix(m.Steps[lastCommand].Text, `\`):
			m.Steps[lastCommand] = continueStep(m.Steps[lastCommand], line, comment)
		default:
			for _, tok := range strings.Fields(line) {
				m.Steps = append(m.Steps, Step{Kind: StepPackage, Text: tok, Comment: comment})
			}
		}
	}
	return m, nil
}

func continueStep(s Step, text, comment string) Step {
	s.Text += "\n" + text
	switch {
	case comment == "":
	case s.Comment == "":
		s.Comment = comment
	default:
		s.Comment += "; " + comment
	}
	return s
}

func lineError(cause error, line int, text string) error {
	return ferrors.ManifestError(fmt.Sprintf("malformed dependency line %d: %q", line, strings.TrimSpace(text))).
		WithCause(cause).
		WithContext("line", line).
		Build()
}

// Documentation renders the manifest as a "Dependencies:" section that
// Extract parses back into the same steps.
func (m *Manifest) Documentation() string {
	var b strings.Builder
	b.WriteString(DependenciesHeading)
	b.WriteByte('\n')
	for _, s := range m.Steps {
		lines := strings.Split(s.Text, "\n")
		if s.Kind == StepCommand {
			lines[0] = "$ " + lines[0]
			for i := 1; i < len(lines); i++ {
				lines[i] = "> " + lines[i]
			}
		}
		if s.Comment != "" {
			lines[0] += "  # " + s.Comment
		}
		for _, l := range lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Script renders a POSIX shell script performing every step in order.
// The script stops at the first failing step.
func (m *Manifest) Script(installer string) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\nset -e\n")
	for _, s := range m.Steps {
		if s.Comment != "" {
			b.WriteString("# " + s.Comment + "\n")
		}
		b.WriteString(s.Shell(installer))
		b.WriteByte('\n')
	}
	return b.String()
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./@%+=:,-]+$`)

func shellQuote(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
