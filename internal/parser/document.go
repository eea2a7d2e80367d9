package parser

import "strings"

// Block is one run of source lines. A heading block holds exactly one line.
type Block struct {
	Heading bool
	Text    string
}

// Document is a loaded manual source reduced to an ordered list of blocks.
// Nesting is discarded: the section splitter only looks at heading lines.
type Document struct {
	Name   string
	Blocks []Block
}

func (d *Document) heading(line string) {
	line = strings.Join(strings.Fields(line), " ")
	if line == "" {
		return
	}
	d.Blocks = append(d.Blocks, Block{Heading: true, Text: line})
}

func (d *Document) body(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.Blocks = append(d.Blocks, Block{Text: text})
}

// Text renders the document as newline-separated lines with a blank line
// between blocks.
func (d *Document) Text() string {
	var sb strings.Builder
	for i, b := range d.Blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(b.Text)
	}
	return sb.String()
}
