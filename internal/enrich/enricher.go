// Package enrich fills the tags, content_type and complexity of stored
// manual passages using an LLM. It never changes text or embeddings.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/fennec/internal/store"
)

// Classifier turns a prompt into a raw classification.
type Classifier interface {
	Classify(ctx context.Context, prompt string) (*Result, error)
}

// Summary reports the outcome of an enrichment pass.
type Summary struct {
	Considered int      `json:"considered"`
	Classified int      `json:"classified"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

// Enricher classifies records that have no content_type yet.
type Enricher struct {
	classifier Classifier
	store      store.ManualStore
	log        *slog.Logger
	backoff    func(int) time.Duration
}

func NewEnricher(c Classifier, s store.ManualStore, log *slog.Logger) *Enricher {
	return &Enricher{classifier: c, store: s, log: log, backoff: Backoff}
}

// Run classifies up to limit unclassified records (0 means all), one at a
// time. A passage that cannot be classified is logged and skipped.
func (e *Enricher) Run(ctx context.Context, limit int) (Summary, error) {
	recs, err := e.store.ListChunks(ctx, store.ListFilter{Unclassified: true, Limit: limit})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Considered: len(recs)}
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		log := e.log.With("chunk_id", rec.ID)

		if err := e.classify(ctx, rec); err != nil {
			log.Warn("classification failed", "error", err)
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %s", rec.ID, err))
			continue
		}
		sum.Classified++
		log.Debug("classified")
	}

	e.log.Info("enrichment complete", "considered", sum.Considered, "classified", sum.Classified, "failed", sum.Failed)
	return sum, nil
}

func (e *Enricher) classify(ctx context.Context, rec store.ManualRecord) error {
	prompt := BuildPrompt(rec.SectionNumber, rec.SectionTitle, rec.Text)
	res, err := withRetry(ctx, e.backoff, func() (*Result, error) {
		return e.classifier.Classify(ctx, prompt)
	})
	if err != nil {
		return err
	}
	if err := Validate(res); err != nil {
		return err
	}

	return e.store.UpdateClassification(ctx, rec.ID, store.Classification{
		Tags:        res.Tags,
		ContentType: &res.ContentType,
		Complexity:  &res.Complexity,
	})
}
