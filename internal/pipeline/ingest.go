package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/fennec/internal/chunker"
	"github.com/dgallion1/fennec/internal/config"
	"github.com/dgallion1/fennec/internal/embedding"
	"github.com/dgallion1/fennec/internal/parser"
	"github.com/dgallion1/fennec/internal/store"
)

// logEvery is how often, in chunks, ingestion progress is logged.
const logEvery = 50

// Bibliography is stamped unchanged on every record of one ingestion run.
type Bibliography struct {
	Source       string
	Edition      string
	ChapterTitle string
	DocType      string
	Jurisdiction string
}

// IngestConfig holds the chunking and bibliographic settings of a run.
type IngestConfig struct {
	Chunking     chunker.Config
	Bibliography Bibliography
	Parser       parser.Options
}

// IngestConfigFrom derives the ingestion settings from the process config.
func IngestConfigFrom(cfg config.Config) IngestConfig {
	return IngestConfig{
		Chunking: chunker.Config{
			DocSlug:  cfg.DocSlug,
			Chapter:  cfg.ChapterNumber,
			MaxChars: cfg.MaxChars,
			Mode:     chunker.ParagraphMode(cfg.ParagraphMode),
		},
		Bibliography: Bibliography{
			Source:       cfg.ManualSource,
			Edition:      cfg.ManualEdition,
			ChapterTitle: cfg.ChapterTitle,
			DocType:      cfg.DocType,
			Jurisdiction: cfg.Jurisdiction,
		},
		Parser: parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
	}
}

// Summary reports the outcome of an ingestion run.
type Summary struct {
	Sections int `json:"sections"`
	Chunks   int `json:"chunks"`
	Upserted int `json:"upserted"`
}

// ProgressFunc is called after each chunk is stored.
type ProgressFunc func(done, total int)

// Ingester embeds and stores manual chunks one at a time.
type Ingester struct {
	embedder embedding.Embedder
	store    store.ManualStore
	cfg      IngestConfig
	log      *slog.Logger
}

func NewIngester(e embedding.Embedder, s store.ManualStore, cfg IngestConfig, log *slog.Logger) *Ingester {
	return &Ingester{embedder: e, store: s, cfg: cfg, log: log}
}

// BuildRecords chunks text and attaches the bibliographic constants. The
// returned records carry no embedding yet.
func BuildRecords(text string, cfg IngestConfig) (int, []store.ManualRecord) {
	sections, chunks := chunker.ChunkDocument(text, cfg.Chunking)
	records := make([]store.ManualRecord, 0, len(chunks))
	for _, c := range chunks {
		records = append(records, store.ManualRecord{
			ID:            c.ID,
			Source:        cfg.Bibliography.Source,
			Edition:       cfg.Bibliography.Edition,
			ChapterNumber: cfg.Chunking.Chapter,
			ChapterTitle:  cfg.Bibliography.ChapterTitle,
			SectionNumber: c.SectionNumber,
			SectionTitle:  c.SectionTitle,
			DocType:       cfg.Bibliography.DocType,
			Jurisdiction:  cfg.Bibliography.Jurisdiction,
			Text:          c.Text,
			Tags:          []string{},
		})
	}
	return len(sections), records
}

// Prepared is a source file that has been loaded and chunked but not yet
// embedded.
type Prepared struct {
	Path     string
	Sections int
	Records  []store.ManualRecord
}

// PrepareFiles loads and chunks every path before anything is embedded, so
// one missing or unreadable file fails the whole run with nothing stored.
func PrepareFiles(paths []string, cfg IngestConfig) ([]Prepared, error) {
	prepared := make([]Prepared, 0, len(paths))
	for _, path := range paths {
		text, err := parser.LoadFile(path, cfg.Parser)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		sections, records := BuildRecords(text, cfg)
		prepared = append(prepared, Prepared{Path: path, Sections: sections, Records: records})
	}
	return prepared, nil
}

// IngestText embeds and upserts every chunk of text in document order. The
// first failure stops the run; records already stored stay stored.
func (in *Ingester) IngestText(ctx context.Context, text string, progress ProgressFunc) (Summary, error) {
	sections, records := BuildRecords(text, in.cfg)
	in.log.Info("chunked manual", "sections", sections, "chunks", len(records))
	return in.Store(ctx, sections, records, progress)
}

// Store embeds and upserts prepared records sequentially.
func (in *Ingester) Store(ctx context.Context, sections int, records []store.ManualRecord, progress ProgressFunc) (Summary, error) {
	sum := Summary{Sections: sections, Chunks: len(records)}
	for i := range records {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rec := &records[i]

		vec, err := in.embedder.Embed(ctx, rec.Text)
		if err != nil {
			return sum, fmt.Errorf("embed %s: %w", rec.ID, err)
		}
		rec.Embedding = vec

		if err := in.store.UpsertChunk(ctx, *rec); err != nil {
			return sum, err
		}
		sum.Upserted++

		if progress != nil {
			progress(sum.Upserted, len(records))
		}
		if sum.Upserted%logEvery == 0 {
			in.log.Info("ingest progress", "upserted", sum.Upserted, "total", len(records))
		}
	}

	in.log.Info("ingest complete", "upserted", sum.Upserted)
	return sum, nil
}
