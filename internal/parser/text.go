package parser

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned for text sources that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

// extractText keeps plain-text lines as they are, trailing whitespace aside.
// Runs of blank lines separate blocks.
func extractText(data []byte, name string, _ Options) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	doc := &Document{Name: name}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
			continue
		}
		doc.body(strings.Join(lines, "\n"))
		lines = lines[:0]
	}
	doc.body(strings.Join(lines, "\n"))
	return doc, nil
}
