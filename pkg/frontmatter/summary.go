package frontmatter

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Summary returns the description field when set, else the text of the
// first paragraph of the body with its lines joined
func (d *Document) Summary() string {
	if desc, ok := d.Frontmatter["description"].(string); ok && strings.TrimSpace(desc) != "" {
		return strings.TrimSpace(desc)
	}
	return FirstParagraph(d.Body)
}

// FirstParagraph returns the raw text of the first Markdown paragraph,
// skipping headings, lists and code blocks that precede it
func FirstParagraph(body string) string {
	src := []byte(body)
	root := goldmark.DefaultParser().Parse(text.NewReader(src))

	var summary string
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindParagraph:
			if n.Parent() != nil && n.Parent().Kind() != ast.KindDocument {
				return ast.WalkSkipChildren, nil
			}
			lines := n.Lines()
			parts := make([]string, 0, lines.Len())
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				parts = append(parts, strings.TrimSpace(string(seg.Value(src))))
			}
			summary = strings.Join(parts, " ")
			return ast.WalkStop, nil
		case ast.KindList, ast.KindBlockquote, ast.KindFencedCodeBlock, ast.KindCodeBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return summary
}
