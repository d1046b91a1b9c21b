package diffchunk

import (
	"fmt"
	"strings"
)

// minRun is the shortest run of removed or added lines Compress will shorten.
const minRun = 6

// Compress shortens text until it fits in limit bytes. Each round replaces the
// longest run of removed lines, or failing that of added lines, with its first
// two and last two lines around a marker. It stops when the text fits or no
// run is long enough; the result may still exceed limit.
func Compress(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	lines := strings.Split(text, "\n")
	size := len(text)
	for size > limit {
		start, n := longestRun(lines, '-')
		marker := "-:(another %d lines dropped here)"
		if n < minRun {
			start, n = longestRun(lines, '+')
			marker = "+:(another %d lines added here)"
		}
		if n < minRun {
			break
		}
		kept := make([]string, 0, len(lines)-n+5)
		kept = append(kept, lines[:start+2]...)
		kept = append(kept, fmt.Sprintf(marker, n-4))
		kept = append(kept, lines[start+n-2:]...)
		lines = kept
		size = len(strings.Join(lines, "\n"))
	}
	return strings.Join(lines, "\n")
}

func longestRun(lines []string, sign byte) (start, n int) {
	for i := 0; i < len(lines); {
		if !inRun(lines[i], sign) {
			i++
			continue
		}
		j := i
		for j < len(lines) && inRun(lines[j], sign) {
			j++
		}
		if j-i > n {
			start, n = i, j-i
		}
		i = j
	}
	return start, n
}

func inRun(l string, sign byte) bool {
	if l == "" || l[0] != sign {
		return false
	}
	// File headers and earlier markers never join a run.
	return !strings.HasPrefix(l, string([]byte{sign, sign, sign, ' '})) &&
		!strings.HasPrefix(l, string([]byte{sign, ':', '('}))
}
