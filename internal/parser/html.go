package parser

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	skippedElements = map[atom.Atom]bool{
		atom.Script: true, atom.Style: true, atom.Nav: true,
		atom.Footer: true, atom.Header: true, atom.Noscript: true,
	}
	headingElements = map[atom.Atom]bool{
		atom.H1: true, atom.H2: true, atom.H3: true,
		atom.H4: true, atom.H5: true, atom.H6: true,
	}
	paragraphElements = map[atom.Atom]bool{
		atom.P: true, atom.Li: true, atom.Td: true, atom.Th: true,
		atom.Blockquote: true, atom.Pre: true, atom.Dd: true, atom.Dt: true,
	}
)

// extractHTML handles HTML exports of the manual. h1-h6 become heading
// lines and block elements become body paragraphs with whitespace
// collapsed. The <title> element, when present, names the document.
func extractHTML(data []byte, name string, _ Options) (*Document, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{Name: name}
	if t := find(root, atom.Title); t != nil {
		if title := collapsedText(t); title != "" {
			doc.Name = title
		}
	}

	start := find(root, atom.Body)
	if start == nil {
		start = root
	}
	var paras []string
	for n := range start.Descendants() {
		if n.Type != html.ElementNode || skipped(n) || insideBlock(n, start) {
			continue
		}
		switch {
		case headingElements[n.DataAtom]:
			doc.body(strings.Join(paras, "\n\n"))
			paras = nil
			doc.heading(collapsedText(n))
		case paragraphElements[n.DataAtom]:
			if t := collapsedText(n); t != "" {
				paras = append(paras, t)
			}
		}
	}
	doc.body(strings.Join(paras, "\n\n"))
	return doc, nil
}

// skipped reports whether n or one of its ancestors is boilerplate.
func skipped(n *html.Node) bool {
	for p := range n.Ancestors() {
		if skippedElements[p.DataAtom] {
			return true
		}
	}
	return skippedElements[n.DataAtom]
}

// insideBlock reports whether n sits under a heading or paragraph element
// below stop; such nodes were already consumed by their container.
func insideBlock(n, stop *html.Node) bool {
	for p := n.Parent; p != nil && p != stop; p = p.Parent {
		if headingElements[p.DataAtom] || paragraphElements[p.DataAtom] {
			return true
		}
	}
	return false
}

func find(n *html.Node, a atom.Atom) *html.Node {
	for d := range n.Descendants() {
		if d.Type == html.ElementNode && d.DataAtom == a {
			return d
		}
	}
	return nil
}

// collapsedText returns the element's text with whitespace runs collapsed.
// A <br> starts a new line.
func collapsedText(n *html.Node) string {
	var lines []string
	var cur strings.Builder
	for d := range n.Descendants() {
		switch {
		case d.Type == html.TextNode:
			cur.WriteString(d.Data)
		case d.Type == html.ElementNode && d.DataAtom == atom.Br:
			lines = append(lines, cur.String())
			cur.Reset()
		}
	}
	lines = append(lines, cur.String())

	var out []string
	for _, l := range lines {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
