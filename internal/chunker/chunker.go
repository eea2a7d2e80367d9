package chunker

import (
	"fmt"
)

// Config controls how a document is split and named.
type Config struct {
	DocSlug  string        // Leading id component, e.g. "meyerowitz"
	Chapter  int           // Chapter number; also the heading prefix digit
	MaxChars int           // Character budget per chunk
	Mode     ParagraphMode // Paragraph reconstruction inside a section
}

// DefaultConfig returns the settings used for the wills chapter of the manual.
func DefaultConfig() Config {
	return Config{
		DocSlug:  "meyerowitz",
		Chapter:  5,
		MaxChars: 1500,
		Mode:     ModeJoined,
	}
}

// ChunkID builds the deterministic identifier for a chunk.
func ChunkID(slug string, chapter int, section string, index int) string {
	return fmt.Sprintf("%s-ch%d-%s-%d", slug, chapter, section, index)
}

// ChunkDocument runs the splitter, packer and id assigner over raw text and
// returns every chunk in document order.
func ChunkDocument(text string, cfg Config) ([]Section, []Chunk) {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 1500
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeJoined
	}

	sections := SplitSections(text, HeadingPattern(cfg.Chapter), cfg.Mode == ModePreserve)

	var chunks []Chunk
	for _, sec := range sections {
		for _, c := range PackSection(sec, cfg.MaxChars, cfg.Mode) {
			c.ID = ChunkID(cfg.DocSlug, cfg.Chapter, c.SectionNumber, c.Index)
			chunks = append(chunks, c)
		}
	}
	return sections, chunks
}
