package chunk

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlainText_StripsHeadingsAndEmphasis(t *testing.T) {
	md := "# Title\n\nSome **bold** and *italic* text.\n\n## Section\n\nMore content here."
	out := PlainText(md)
	require.NotContains(t, out, "#")
	require.NotContains(t, out, "*")
	require.Contains(t, out, "Title")
	require.Contains(t, out, "Some bold and italic text.")
	require.Contains(t, out, "More content here.")
}

func TestPlainText_KeepsBlockBoundaries(t *testing.T) {
	md := "First paragraph.\n\nSecond paragraph."
	out := PlainText(md)
	require.Equal(t, "First paragraph.\n\nSecond paragraph.", out)
}

func TestPlainText_FencedCodeKept(t *testing.T) {
	md := "Intro.\n\n```go\nfunc main() {}\n```\n\nOutro."
	out := PlainText(md)
	require.NotContains(t, out, "```")
	require.Contains(t, out, "func main() {}")
}

func TestPlainText_Links(t *testing.T) {
	out := PlainText("See [the docs](https://example.com) for more.")
	require.Contains(t, out, "the docs")
	require.NotContains(t, out, "](")
}

func TestPlainText_ListItems(t *testing.T) {
	out := PlainText("- first item\n- second item\n- third item")
	require.NotContains(t, out, "- ")
	require.Contains(t, out, "first item")
	require.Contains(t, out, "second item")
	require.Contains(t, out, "third item")
}

func TestPlainText_InlineCode(t *testing.T) {
	out := PlainText("Run `make build` to compile.")
	require.Contains(t, out, "make build")
	require.False(t, strings.Contains(out, "`"))
}
