package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Section is a heading-delimited span of the source document.
type Section struct {
	Number string   // Dotted section number, e.g. "5.21" or "5.21.3"
	Title  string   // Heading text after the number
	Lines  []string // Content lines in document order, right-trimmed
}

// HeadingPattern returns the anchored section heading pattern for a chapter.
// Only one or two sub-levels below the chapter digit are recognised, and a
// number with no title after it is ordinary content.
func HeadingPattern(chapter int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^(%d\.\d+(?:\.\d+)?)\s+(.+)$`, chapter))
}

// SplitSections groups the lines of text into sections keyed by heading lines.
//
// Blank lines are dropped. Lines before the first heading have no owning
// section and are discarded. When keepBreaks is set, a blank line inside a
// section is kept as a single "" marker so paragraph boundaries survive.
func SplitSections(text string, heading *regexp.Regexp, keepBreaks bool) []Section {
	var sections []Section
	var current *Section

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)

		if strings.TrimSpace(line) == "" {
			if keepBreaks && current != nil && len(current.Lines) > 0 && current.Lines[len(current.Lines)-1] != "" {
				current.Lines = append(current.Lines, "")
			}
			continue
		}

		if m := heading.FindStringSubmatch(line); m != nil {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &Section{
				Number: m[1],
				Title:  strings.TrimSpace(m[2]),
			}
			continue
		}

		if current == nil {
			continue
		}
		current.Lines = append(current.Lines, line)
	}

	if current != nil {
		sections = append(sections, *current)
	}
	return sections
}
