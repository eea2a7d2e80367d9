package parser

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// extractMarkdown walks the top-level goldmark blocks. Heading markers are
// dropped, so "## 5.1 Introduction" yields the heading line
// "5.1 Introduction".
func extractMarkdown(data []byte, name string, _ Options) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	doc := &Document{Name: name}
	root := markdown.Parser().Parse(text.NewReader(data))
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if _, ok := n.(*ast.Heading); ok {
			doc.heading(sourceLines(n, data))
		} else {
			doc.body(sourceLines(n, data))
		}
	}
	return doc, nil
}

// sourceLines returns the raw lines backing a block node. Containers such as
// lists and block quotes own no lines, so their children are joined one per
// line instead.
func sourceLines(n ast.Node, src []byte) string {
	if n.Type() != ast.TypeBlock {
		return ""
	}
	segs := n.Lines()
	if segs == nil || segs.Len() == 0 {
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if s := sourceLines(c, src); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	}
	var sb strings.Builder
	for i := range segs.Len() {
		seg := segs.At(i)
		sb.Write(seg.Value(src))
	}
	return strings.TrimSpace(sb.String())
}
