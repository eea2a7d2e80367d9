package enrich

import (
	"fmt"
	"strings"
)

const SystemPrompt = `You classify passages from a practitioner's manual on South African wills and estates.`

const ClassificationPrompt = `Classify the manual passage below. Return a JSON object with exactly these fields:

- "content_type": one of "rule", "procedure", "example", "definition", "commentary"
- "complexity": one of "basic", "intermediate", "advanced"
- "tags": up to 5 topic slugs (lowercase, hyphenated), e.g. "executors", "witnesses", "usufruct"

Guidance:
- "rule" states what the law requires or permits; "procedure" describes steps to follow
- "definition" explains a term; "example" works through a scenario; anything else is "commentary"
- "basic" passages need no legal background; "advanced" ones assume a practitioner

Respond with ONLY the JSON object, no other text.`

// BuildPrompt creates the full classification prompt for one passage,
// including its section context.
func BuildPrompt(sectionNumber, sectionTitle, text string) string {
	var sb strings.Builder
	sb.WriteString(ClassificationPrompt)
	sb.WriteString("\n\n---\n")
	heading := strings.TrimSpace(sectionNumber + " " + sectionTitle)
	if heading != "" {
		sb.WriteString(fmt.Sprintf("Section: %s\n", heading))
	}
	sb.WriteString("---\n")
	sb.WriteString(text)
	return sb.String()
}
