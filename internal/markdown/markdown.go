package markdown

import (
	"bytes"
	"slices"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Options controls how Markdown is parsed for analysis.
type Options struct {
	// Languages selects fenced blocks by info-string language. Empty selects all.
	Languages []string
}

// Fence is one fenced code block.
type Fence struct {
	Language string
	Line     int // 1-based line of the first content line
	Content  string
}

func newMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM))
}

// ParseBody parses a Markdown body into a Goldmark AST.
func ParseBody(body []byte, _ Options) (gmast.Node, error) {
	root := newMarkdown().Parser().Parse(text.NewReader(body))
	return root, nil
}

// ExtractFences returns the fenced code blocks of body in document order.
// Indented code blocks are not fences and are never returned.
func ExtractFences(body []byte, opts Options) ([]Fence, error) {
	root, err := ParseBody(body, opts)
	if err != nil {
		return nil, err
	}

	fences := make([]Fence, 0)
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		node, ok := n.(*gmast.FencedCodeBlock)
		if !ok {
			return gmast.WalkContinue, nil
		}
		lang := string(node.Language(body))
		if len(opts.Languages) > 0 && !slices.Contains(opts.Languages, lang) {
			return gmast.WalkSkipChildren, nil
		}

		var content bytes.Buffer
		lines := node.Lines()
		line := 0
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			if i == 0 {
				line = lineOf(body, seg.Start)
			}
			content.Write(seg.Value(body))
		}
		if line == 0 && node.Info != nil {
			line = lineOf(body, node.Info.Segment.Start) + 1
		}
		fences = append(fences, Fence{Language: lang, Line: line, Content: content.String()})
		return gmast.WalkSkipChildren, nil
	})
	return fences, nil
}

// Title returns the text of the first level-one heading, or "".
func Title(body []byte) string {
	root, _ := ParseBody(body, Options{})
	var title string
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering || title != "" {
			return gmast.WalkContinue, nil
		}
		if h, ok := n.(*gmast.Heading); ok && h.Level == 1 {
			var b bytes.Buffer
			for i := 0; i < h.Lines().Len(); i++ {
				seg := h.Lines().At(i)
				b.Write(seg.Value(body))
			}
			title = string(bytes.TrimSpace(b.Bytes()))
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// FirstParagraph returns the raw text of the first top-level paragraph, or "".
func FirstParagraph(body []byte) string {
	root, _ := ParseBody(body, Options{})
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		p, ok := n.(*gmast.Paragraph)
		if !ok {
			continue
		}
		var b bytes.Buffer
		for i := 0; i < p.Lines().Len(); i++ {
			seg := p.Lines().At(i)
			b.Write(seg.Value(body))
		}
		return string(bytes.TrimSpace(b.Bytes()))
	}
	return ""
}

func lineOf(body []byte, offset int) int {
	if offset > len(body) {
		offset = len(body)
	}
	return bytes.Count(body[:offset], []byte("\n")) + 1
}
