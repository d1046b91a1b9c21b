package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractFences_SelectsLanguages(t *testing.T) {
	src := []byte("" +
		"# Tool\n" +
		"\n" +
		"```sh\n" +
		"$ echo hi\n" +
		"hi\n" +
		"```\n" +
		"\n" +
		"```python\n" +
		"print('ignored')\n" +
		"```\n" +
		"\n" +
		"```console\n" +
		"$ true\n" +
		"```\n")

	fences, err := ExtractFences(src, Options{Languages: []string{"sh", "console"}})
	require.NoError(t, err)
	require.Len(t, fences, 2)
	require.Equal(t, "sh", fences[0].Language)
	require.Equal(t, 4, fences[0].Line)
	require.Equal(t, "$ echo hi\nhi\n", fences[0].Content)
	require.Equal(t, "console", fences[1].Language)
	require.Equal(t, 13, fences[1].Line)
}

func TestExtractFences_SkipsIndentedAndNestedText(t *testing.T) {
	src := []byte("" +
		"    $ indented code\n" +
		"\n" +
		"Inline `$ echo no` code.\n" +
		"\n" +
		"- item\n" +
		"\n" +
		"  ```sh\n" +
		"  $ echo nested\n" +
		"  nested\n" +
		"  ```\n")

	fences, err := ExtractFences(src, Options{Languages: []string{"sh"}})
	require.NoError(t, err)
	require.Len(t, fences, 1)
	require.Equal(t, "$ echo nested\nnested\n", fences[0].Content)
}

func TestExtractFences_EmptyFence(t *testing.T) {
	fences, err := ExtractFences([]byte("```sh\n```\n"), Options{})
	require.NoError(t, err)
	require.Len(t, fences, 1)
	require.Empty(t, fences[0].Content)
	require.Equal(t, 2, fences[0].Line)
}

func TestTitle(t *testing.T) {
	require.Equal(t, "Widget tool", Title([]byte("<!-- c -->\n# Widget tool\n\n## Usage\n")))
	require.Empty(t, Title([]byte("no heading\n")))
}

func TestToHTML(t *testing.T) {
	html, err := ToHTML([]byte("# Title\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	require.Contains(t, string(html), "<h1>Title</h1>")
	require.Contains(t, string(html), "<table>")
}

func TestFirstParagraph(t *testing.T) {
	body := []byte("# Widget\n\n```sh\n$ x\n```\n\nA small tool\nfor widgets.\n\nSecond.\n")
	require.Equal(t, "A small tool\nfor widgets.", FirstParagraph(body))
	require.Empty(t, FirstParagraph([]byte("# Only a heading\n")))
}
