package pipeline

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/dgallion1/fennec/internal/parser"
)

// AfterIngestFunc runs on the worker goroutine after a job completes.
type AfterIngestFunc func(ctx context.Context, job *Job)

// Worker takes one job at a time through parse, chunk and embed.
type Worker struct {
	ingester    *Ingester
	log         *slog.Logger
	afterIngest AfterIngestFunc
}

func NewWorker(ingester *Ingester, log *slog.Logger) *Worker {
	return &Worker{ingester: ingester, log: log}
}

// Process runs job to completion or to the first failing stage. Failures are
// recorded on the job rather than returned.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.enter(StatusParsing)
	text, err := parser.LoadText(bytes.NewReader(job.takeData()), job.Filename, w.ingester.cfg.Parser)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.fail("parse: " + err.Error())
		return
	}

	job.enter(StatusChunking)
	sections, records := BuildRecords(text, w.ingester.cfg)
	job.setTotals(sections, len(records))
	if len(records) == 0 {
		log.Warn("no section headings found")
	}
	log.Info("chunked document", "sections", sections, "chunks", len(records))

	job.enter(StatusEmbedding)
	sum, err := w.ingester.Store(ctx, sections, records, func(done, _ int) {
		job.setProcessed(done)
	})
	if err != nil {
		log.Error("ingest failed", "upserted", sum.Upserted, "error", err)
		job.fail(err.Error())
		return
	}

	job.complete()
	log.Info("job complete", "upserted", sum.Upserted)
	if w.afterIngest != nil {
		w.afterIngest(ctx, job)
	}
}
