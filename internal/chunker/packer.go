package chunker

import (
	"strings"
)

// ParagraphMode controls how a section's lines become packable paragraphs.
type ParagraphMode string

const (
	// ModeJoined merges every line of a section into one paragraph.
	ModeJoined ParagraphMode = "joined"
	// ModePreserve keeps blank-line paragraph boundaries, so sections larger
	// than MaxChars are split between paragraphs.
	ModePreserve ParagraphMode = "preserve"
)

// Chunk is a bounded unit of section text, the unit of embedding and storage.
type Chunk struct {
	ID            string
	SectionNumber string
	SectionTitle  string
	Index         int // 1-based within the section
	Text          string
}

// PackSection greedily packs a section's paragraphs into chunks of at most
// maxChars characters. A single paragraph is never split, so one longer than
// maxChars becomes one oversized chunk.
func PackSection(sec Section, maxChars int, mode ParagraphMode) []Chunk {
	var chunks []Chunk
	var buf []string
	bufLen := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			SectionNumber: sec.Number,
			SectionTitle:  sec.Title,
			Index:         len(chunks) + 1,
			Text:          strings.TrimSpace(strings.Join(buf, "\n\n")),
		})
	}

	for _, para := range paragraphs(sec.Lines, mode) {
		if para == "" {
			continue
		}
		if bufLen+len(para)+1 <= maxChars {
			buf = append(buf, para)
			bufLen += len(para) + 1
			continue
		}
		flush()
		buf = []string{para}
		bufLen = len(para)
	}
	flush()

	return chunks
}

// paragraphs joins lines with single spaces. In joined mode the whole section
// becomes one paragraph; in preserve mode "" markers start a new one.
func paragraphs(lines []string, mode ParagraphMode) []string {
	var out []string
	var cur []string
	for _, l := range lines {
		if l == "" {
			if mode == ModePreserve {
				out = append(out, joinLines(cur))
				cur = nil
			}
			continue
		}
		cur = append(cur, strings.TrimSpace(l))
	}
	return append(out, joinLines(cur))
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, " "))
}
