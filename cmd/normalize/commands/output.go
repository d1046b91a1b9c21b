package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"git.home.luguber.info/inful/normalize/internal/buildgraph"
	"git.home.luguber.info/inful/normalize/internal/harness"
)

var (
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E74C3C"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7F8C8D"))
)

// printer writes result lines, styled only when w is a terminal.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	p := &printer{w: w}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		p.color = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return p
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Report prints the PASS/FAIL line of one tested module.
func (p *printer) Report(rep *harness.ModuleReport) {
	label := p.style(passStyle, "PASS")
	if !rep.OK() {
		label = p.style(failStyle, "FAIL")
	}
	_, _ = fmt.Fprintf(p.w, "%s %s\n", label, rep.Summary())
}

// Summary prints the closing line of a run.
func (p *printer) Summary(sum *buildgraph.Summary) {
	if sum == nil {
		return
	}
	line := fmt.Sprintf("%s: %d made, %d up to date", sum.Goal,
		sum.Count(buildgraph.StatusRan), sum.Count(buildgraph.StatusUpToDate))
	if n := sum.Count(buildgraph.StatusSkipped); n > 0 {
		line += fmt.Sprintf(", %d not attempted", n)
	}
	if sum.Failure != nil {
		_, _ = fmt.Fprintf(p.w, "%s %s (failed at %s)\n", p.style(failStyle, "FAIL"), line, sum.Failure.Target.Name)
		return
	}
	_, _ = fmt.Fprintf(p.w, "%s %s\n", p.style(passStyle, "OK"), line)
}

// Muted prints a secondary line.
func (p *printer) Muted(format string, args ...any) {
	_, _ = fmt.Fprintln(p.w, p.style(mutedStyle, fmt.Sprintf(format, args...)))
}
