package enrich

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxTags caps how many tags a passage may carry.
const MaxTags = 5

// Result is the classification returned by the model.
type Result struct {
	ContentType string   `json:"content_type"`
	Complexity  string   `json:"complexity"`
	Tags        []string `json:"tags"`
}

var validContentTypes = map[string]bool{
	"rule":       true,
	"procedure":  true,
	"example":    true,
	"definition": true,
	"commentary": true,
}

var validComplexities = map[string]bool{
	"basic":        true,
	"intermediate": true,
	"advanced":     true,
}

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// Validate normalizes r in place and reports why it cannot be stored.
// Tags are slugified, deduplicated and capped at MaxTags.
func Validate(r *Result) error {
	if r == nil {
		return errors.New("no classification")
	}
	r.ContentType = strings.ToLower(strings.TrimSpace(r.ContentType))
	r.Complexity = strings.ToLower(strings.TrimSpace(r.Complexity))

	if !validContentTypes[r.ContentType] {
		return fmt.Errorf("invalid content_type %q", r.ContentType)
	}
	if !validComplexities[r.Complexity] {
		return fmt.Errorf("invalid complexity %q", r.Complexity)
	}

	seen := make(map[string]bool, len(r.Tags))
	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if injectionPattern.MatchString(t) {
			continue
		}
		s := Slugify(t)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		tags = append(tags, s)
		if len(tags) == MaxTags {
			break
		}
	}
	r.Tags = tags
	return nil
}

var (
	nonSlugRe = regexp.MustCompile(`[^a-z0-9-]`)
	dashRunRe = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a lowercase hyphenated slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = dashRunRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = strings.TrimRight(s[:50], "-")
	}
	return s
}
