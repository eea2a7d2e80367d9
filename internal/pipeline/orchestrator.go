package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrQueueFull is returned by Submit when no more jobs can be queued.
var ErrQueueFull = errors.New("job queue is full")

const sweepInterval = 5 * time.Minute

// Orchestrator runs uploaded-manual ingestion in the background on a single
// worker, so chunk upserts from two uploads never interleave.
type Orchestrator struct {
	jobs   *jobRegistry
	queue  chan *Job
	worker *Worker
	log    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to begin processing.
func NewOrchestrator(ingester *Ingester, queueSize int, jobTTL time.Duration, log *slog.Logger) *Orchestrator {
	if queueSize <= 0 {
		queueSize = 10
	}
	return &Orchestrator{
		jobs:   newJobRegistry(jobTTL),
		queue:  make(chan *Job, queueSize),
		worker: NewWorker(ingester, log),
		log:    log,
	}
}

// SetAfterIngest installs fn to run after every completed job. Call before
// Start.
func (o *Orchestrator) SetAfterIngest(fn AfterIngestFunc) {
	o.worker.afterIngest = fn
}

// Start launches the worker and the idle-job sweeper.
func (o *Orchestrator) Start(ctx context.Context) {
	ctx, o.cancel = context.WithCancel(ctx)
	o.wg.Add(2)
	go o.run(ctx)
	go o.sweep(ctx)
}

func (o *Orchestrator) run(ctx context.Context) {
	defer o.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-o.queue:
			o.worker.Process(ctx, job)
		}
	}
}

func (o *Orchestrator) sweep(ctx context.Context) {
	defer o.wg.Done()
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := o.jobs.evict(now); n > 0 {
				o.log.Debug("evicted idle jobs", "count", n)
			}
		}
	}
}

// Stop cancels in-flight work and waits for the goroutines to exit.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit registers job and queues it. A full queue fails the job at once;
// it stays visible through GetJob either way.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.add(job)
	select {
	case o.queue <- job:
		o.log.Info("job queued", "job_id", job.ID, "filename", job.Filename)
		return nil
	default:
		job.fail(ErrQueueFull.Error())
		return fmt.Errorf("%w (capacity %d)", ErrQueueFull, cap(o.queue))
	}
}

// GetJob returns a job by ID, or nil once it is unknown or evicted.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.get(id)
}

// QueueDepth reports how many jobs are waiting for the worker.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
