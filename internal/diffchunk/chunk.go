// Package diffchunk shrinks a unified diff with full context to the parts a
// reviewer needs: every added or removed line stays visible together with its
// paragraph, and unchanged regions collapse to their first line.
package diffchunk

import (
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/go-diff/diff"

	ferrors "git.home.luguber.info/inful/normalize/internal/foundation/errors"
)

// Level is the granularity of a Region.
type Level string

const (
	LevelPart      Level = "part"
	LevelSection   Level = "section"
	LevelParagraph Level = "paragraph"
)

// Ellipsis marks a collapsed region.
const Ellipsis = " ..."

// Region is a contiguous span of hunk body lines. Parts hold sections and
// sections hold paragraphs; paragraphs are never split further.
type Region struct {
	Level    Level
	Lines    []string
	Children []Region
}

// Changed reports whether the region contains an added or removed line.
func (r Region) Changed() bool {
	for _, l := range r.Lines {
		if isChange(l) {
			return true
		}
	}
	return false
}

// Collapsed returns the one-line form of the region.
func (r Region) Collapsed() string {
	for _, l := range r.Lines {
		if !isBlank(l) {
			return l + Ellipsis
		}
	}
	return strings.TrimPrefix(Ellipsis, " ")
}

// Part builds the region tree of one hunk.
func Part(h *diff.Hunk) Region {
	lines := bodyLines(h.Body)
	part := Region{Level: LevelPart, Lines: lines}
	for _, s := range split(lines, 2) {
		section := Region{Level: LevelSection, Lines: s}
		for _, p := range split(s, 1) {
			section.Children = append(section.Children, Region{Level: LevelParagraph, Lines: p})
		}
		part.Children = append(part.Children, section)
	}
	return part
}

// Chunk parses a unified diff and returns its chunked form. Multi-file diffs
// keep their file headers; bare hunks are accepted as well.
func Chunk(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	var b strings.Builder
	if hasFileHeaders(text) {
		files, err := diff.ParseMultiFileDiff([]byte(text))
		if err != nil {
			return "", parseError(err)
		}
		for _, fd := range files {
			writeFileHeader(&b, fd)
			writeHunks(&b, fd.Hunks)
		}
		return b.String(), nil
	}

	hunks, err := diff.ParseHunks([]byte(text))
	if err != nil {
		return "", parseError(err)
	}
	writeHunks(&b, hunks)
	return b.String(), nil
}

func parseError(err error) error {
	return ferrors.WrapError(err, ferrors.CategoryValidation, "failed to parse unified diff").Build()
}

func writeHunks(b *strings.Builder, hunks []*diff.Hunk) {
	for _, h := range hunks {
		part := Part(h)
		if !part.Changed() {
			b.WriteString(part.Collapsed() + "\n")
			continue
		}
		b.WriteString(hunkHeader(h) + "\n")
		for _, section := range part.Children {
			if !section.Changed() {
				b.WriteString(section.Collapsed() + "\n")
				continue
			}
			for _, p := range section.Children {
				if !p.Changed() {
					b.WriteString(p.Collapsed() + "\n")
					continue
				}
				for _, l := range p.Lines {
					b.WriteString(l + "\n")
				}
			}
		}
	}
}

func hunkHeader(h *diff.Hunk) string {
	s := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
	if h.Section != "" {
		s += " " + h.Section
	}
	return s
}

const diffTimeFormat = "2006-01-02 15:04:05.000000000 -0700"

func writeFileHeader(b *strings.Builder, fd *diff.FileDiff) {
	for _, x := range fd.Extended {
		b.WriteString(x + "\n")
	}
	b.WriteString(fileLine("--- ", fd.OrigName, fd.OrigTime))
	b.WriteString(fileLine("+++ ", fd.NewName, fd.NewTime))
}

func fileLine(prefix, name string, t *time.Time) string {
	if t == nil {
		return prefix + name + "\n"
	}
	return prefix + name + "\t" + t.Format(diffTimeFormat) + "\n"
}

func hasFileHeaders(text string) bool {
	lines := strings.Split(text, "\n")
	for i := 0; i+1 < len(lines); i++ {
		if strings.HasPrefix(lines[i], "--- ") && strings.HasPrefix(lines[i+1], "+++ ") {
			return true
		}
	}
	return false
}

func bodyLines(body []byte) []string {
	s := strings.TrimSuffix(string(body), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func isChange(l string) bool {
	return strings.HasPrefix(l, "+") || strings.HasPrefix(l, "-")
}

// isBlank reports a blank context line; a bare "+" or "-" is a change.
func isBlank(l string) bool {
	return strings.TrimSpace(l) == ""
}

// split cuts lines after every run of at least minRun blank lines. Separator
// runs stay with the region they follow; leading blanks join the next region.
func split(lines []string, minRun int) [][]string {
	var (
		out     [][]string
		cur     []string
		content bool
	)
	for i := 0; i < len(lines); {
		if !isBlank(lines[i]) {
			cur = append(cur, lines[i])
			content = true
			i++
			continue
		}
		j := i
		for j < len(lines) && isBlank(lines[j]) {
			j++
		}
		cur = append(cur, lines[i:j]...)
		if content && j-i >= minRun {
			out = append(out, cur)
			cur, content = nil, false
		}
		i = j
	}
	if len(cur) > 0 {
		if !content && len(out) > 0 {
			out[len(out)-1] = append(out[len(out)-1], cur...)
		} else {
			out = append(out, cur)
		}
	}
	return out
}
