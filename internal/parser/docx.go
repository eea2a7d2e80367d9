package parser

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"
)

// extractDOCX reads body paragraphs in order. Paragraphs carrying a Word
// heading or title style become heading lines; consecutive plain paragraphs
// share one body block. A plain paragraph reading "5.3 Title" is still
// recognised later by the section splitter.
func extractDOCX(data []byte, name string, _ Options) (*Document, error) {
	f, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &Document{Name: name}
	var run []string
	for _, item := range f.Document.Body.Items {
		p, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		line := paragraphText(p)
		if line == "" {
			continue
		}
		if !isHeadingStyle(paragraphStyle(p)) {
			run = append(run, line)
			continue
		}
		doc.body(strings.Join(run, "\n"))
		run = run[:0]
		doc.heading(line)
	}
	doc.body(strings.Join(run, "\n"))
	return doc, nil
}

func paragraphStyle(p *docx.Paragraph) string {
	if p.Properties == nil || p.Properties.Style == nil {
		return ""
	}
	return p.Properties.Style.Val
}

// isHeadingStyle accepts "Title" and the built-in "Heading1".."Heading9"
// style ids, with or without the space Word inserts in display names.
func isHeadingStyle(style string) bool {
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	if s == "title" {
		return true
	}
	rest, ok := strings.CutPrefix(s, "heading")
	if !ok || len(rest) != 1 {
		return false
	}
	n, err := strconv.Atoi(rest)
	return err == nil && n >= 1
}

func paragraphText(p *docx.Paragraph) string {
	var sb strings.Builder
	for _, c := range p.Children {
		r, ok := c.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range r.Children {
			if t, ok := rc.(*docx.Text); ok {
				sb.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(sb.String())
}
