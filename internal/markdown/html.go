package markdown

import (
	"bytes"
	"fmt"
)

// ToHTML renders Markdown to an HTML fragment (GitHub flavored).
func ToHTML(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := newMarkdown().Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	return buf.Bytes(), nil
}
