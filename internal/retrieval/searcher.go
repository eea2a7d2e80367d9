// Package retrieval answers natural-language questions against the stored
// manual chunks.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/fennec/internal/embedding"
	"github.com/dgallion1/fennec/internal/store"
)

// Result is one ranked chunk returned for a query.
type Result = store.SearchResult

// Searcher embeds queries and ranks stored chunks against them.
type Searcher struct {
	embedder            embedding.Embedder
	store               store.ManualStore
	defaultJurisdiction string
}

// NewSearcher creates a Searcher. defaultJurisdiction applies when a query
// names none.
func NewSearcher(e embedding.Embedder, s store.ManualStore, defaultJurisdiction string) *Searcher {
	return &Searcher{embedder: e, store: s, defaultJurisdiction: defaultJurisdiction}
}

// Search returns up to k chunks for query, nearest first. Results are
// returned exactly as ranked by the store.
func (s *Searcher) Search(ctx context.Context, query string, k int, jurisdiction string) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is empty")
	}
	if jurisdiction == "" {
		jurisdiction = s.defaultJurisdiction
	}

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.store.SearchChunks(ctx, vec, jurisdiction, k)
	if err != nil {
		return nil, err
	}
	return results, nil
}

const previewChars = 300

// FormatResults writes a ranked, human-readable summary of results.
func FormatResults(w io.Writer, results []Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for i, r := range results {
		title := r.SectionNumber
		if r.SectionTitle != "" {
			title += " " + r.SectionTitle
		}
		if _, err := fmt.Fprintf(w, "%d. [%s] %s (similarity %.3f)\n", i+1, r.ID, title, r.Similarity); err != nil {
			return err
		}
		if r.PageStart != nil {
			if _, err := fmt.Fprintf(w, "   %s\n", pageRange(r.PageStart, r.PageEnd)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "   %s\n\n", Preview(r.Text, previewChars)); err != nil {
			return err
		}
	}
	return nil
}

// Preview collapses whitespace in text and truncates it to max runes.
func Preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "..."
}

func pageRange(start, end *int) string {
	if end == nil || *end == *start {
		return fmt.Sprintf("p. %d", *start)
	}
	return fmt.Sprintf("pp. %d-%d", *start, *end)
}
