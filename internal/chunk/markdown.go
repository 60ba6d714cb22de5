package chunk

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// PlainText strips markdown structure from source, returning the visible
// text with block boundaries preserved as blank lines so the splitter
// still sees paragraphs.
func PlainText(source string) string {
	src := []byte(source)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		block := renderBlock(node, src)
		if strings.TrimSpace(block) != "" {
			blocks = append(blocks, strings.TrimSpace(block))
		}
	}
	return strings.Join(blocks, "\n\n")
}

func renderBlock(node ast.Node, src []byte) string {
	switch n := node.(type) {
	case *ast.FencedCodeBlock:
		var sb strings.Builder
		for i := 0; i < n.Lines().Len(); i++ {
			line := n.Lines().At(i)
			sb.Write(line.Value(src))
		}
		return sb.String()
	case *ast.CodeBlock:
		var sb strings.Builder
		for i := 0; i < n.Lines().Len(); i++ {
			line := n.Lines().At(i)
			sb.Write(line.Value(src))
		}
		return sb.String()
	case *ast.List:
		var items []string
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			var parts []string
			for child := item.FirstChild(); child != nil; child = child.NextSibling() {
				if txt := strings.TrimSpace(renderBlock(child, src)); txt != "" {
					parts = append(parts, txt)
				}
			}
			if len(parts) > 0 {
				items = append(items, strings.Join(parts, " "))
			}
		}
		return strings.Join(items, "\n")
	default:
		return extractText(node, src)
	}
}

// extractText collects every text segment under node in document order.
func extractText(node ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.CodeSpan:
			for child := t.FirstChild(); child != nil; child = child.NextSibling() {
				if seg, ok := child.(*ast.Text); ok {
					sb.Write(seg.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
