package manifest

import (
	"path/filepath"
	"strings"
)

type commentStyle int

const (
	styleHash commentStyle = iota
	stylePython
	styleSlash
	styleHTML
)

func styleFor(name string) commentStyle {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".py":
		return stylePython
	case ".c", ".cc", ".cpp", ".h", ".hpp", ".s", ".go", ".rs", ".js":
		return styleSlash
	case ".md", ".markdown":
		return styleHTML
	default:
		return styleHash
	}
}

// Header returns the leading documentation block of a file with comment
// markers removed. The comment syntax is chosen by the file extension.
// Extraction stops at the first non-comment content.
func Header(name string, content []byte) []string {
	lines := splitLines(string(content))
	switch styleFor(name) {
	case stylePython:
		return pythonHeader(lines)
	case styleSlash:
		return slashHeader(lines)
	case styleHTML:
		return htmlHeader(lines)
	default:
		i := skipShebang(lines, 0)
		return hashBlock(lines, skipBlank(lines, i))
	}
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func skipShebang(lines []string, i int) int {
	if i < len(lines) && strings.HasPrefix(lines[i], "#!") {
		return i + 1
	}
	return i
}

func skipBlank(lines []string, i int) int {
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	return i
}

func isCodingLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "#") && (strings.Contains(t, "coding:") || strings.Contains(t, "coding="))
}

func hashBlock(lines []string, i int) []string {
	var out []string
	for ; i < len(lines); i++ {
		t := strings.TrimLeft(lines[i], " \t")
		if !strings.HasPrefix(t, "#") {
			break
		}
		t = strings.TrimPrefix(t, "#")
		out = append(out, strings.TrimRight(strings.TrimPrefix(t, " "), " \t"))
	}
	return out
}

func pythonHeader(lines []string) []string {
	i := skipShebang(lines, 0)
	for i < len(lines) && i < 2 && isCodingLine(lines[i]) {
		i++
	}
	i = skipBlank(lines, i)
	if i >= len(lines) {
		return nil
	}
	first := strings.TrimLeft(lines[i], "rRuU")
	for _, quote := range []string{`"""`, `'''`} {
		if !strings.HasPrefix(first, quote) {
			continue
		}
		rest := first[len(quote):]
		if end := strings.Index(rest, quote); end >= 0 {
			return []string{strings.TrimSpace(rest[:end])}
		}
		body := []string{strings.TrimRight(rest, " \t")}
		for i++; i < len(lines); i++ {
			if end := strings.Index(lines[i], quote); end >= 0 {
				if tail := lines[i][:end]; strings.TrimSpace(tail) != "" {
					body = append(body, tail)
				}
				break
			}
			body = append(body, lines[i])
		}
		return dedent(body)
	}
	return hashBlock(lines, i)
}

func slashHeader(lines []string) []string {
	i := skipBlank(lines, 0)
	if i >= len(lines) {
		return nil
	}
	t := strings.TrimLeft(lines[i], " \t")
	switch {
	case strings.HasPrefix(t, "//"):
		var out []string
		for ; i < len(lines); i++ {
			t := strings.TrimLeft(lines[i], " \t")
			if !strings.HasPrefix(t, "//") {
				break
			}
			t = strings.TrimLeft(strings.TrimPrefix(t, "//"), "/")
			out = append(out, strings.TrimRight(strings.TrimPrefix(t, " "), " \t"))
		}
		return out
	case strings.HasPrefix(t, "/*"):
		var out []string
		t = strings.TrimLeft(strings.TrimPrefix(t, "/*"), "*")
		for {
			end := strings.Index(t, "*/")
			if end >= 0 {
				t = t[:end]
			}
			line := strings.TrimLeft(t, " \t")
			if strings.HasPrefix(line, "*") {
				line = strings.TrimPrefix(strings.TrimPrefix(line, "*"), " ")
			} else {
				line = t
			}
			line = strings.TrimRight(line, " \t")
			if end < 0 || line != "" {
				out = append(out, line)
			}
			i++
			if end >= 0 || i >= len(lines) {
				break
			}
			t = lines[i]
		}
		if len(out) > 0 && out[0] == "" {
			out = out[1:]
		}
		return dedent(out)
	}
	return nil
}

func htmlHeader(lines []string) []string {
	i := skipBlank(lines, 0)
	if i >= len(lines) {
		return nil
	}
	t := strings.TrimLeft(lines[i], " \t")
	if !strings.HasPrefix(t, "<!--") {
		return nil
	}
	t = strings.TrimPrefix(t, "<!--")
	var out []string
	for {
		end := strings.Index(t, "-->")
		if end >= 0 {
			t = t[:end]
		}
		if end < 0 || strings.TrimSpace(t) != "" {
			out = append(out, strings.TrimRight(t, " \t"))
		}
		i++
		if end >= 0 || i >= len(lines) {
			break
		}
		t = lines[i]
	}
	if len(out) > 0 && strings.TrimSpace(out[0]) == "" {
		out = out[1:]
	}
	return dedent(out)
}

// dedent removes the indentation common to all non-blank lines after the first.
func dedent(lines []string) []string {
	if len(lines) == 0 {
		return lines
	}
	common := -1
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	out := make([]string, len(lines))
	out[0] = strings.TrimSpace(lines[0])
	for i, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			out[i+1] = ""
			continue
		}
		if common > 0 {
			l = l[common:]
		}
		out[i+1] = strings.TrimRight(l, " \t")
	}
	return out
}
