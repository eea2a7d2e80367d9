package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sync"
	"time"
)

// JobStatus is the lifecycle state of an upload job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusParsing   JobStatus = "parsing"
	StatusChunking  JobStatus = "chunking"
	StatusEmbedding JobStatus = "embedding"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Progress counts the work done for a job so far.
type Progress struct {
	Sections        int      `json:"sections"`
	TotalChunks     int      `json:"total_chunks"`
	ChunksProcessed int      `json:"chunks_processed"`
	Errors          []string `json:"errors"`
}

// JobSnapshot is the externally visible state of a job. Phase names the
// stage the job reached; it stays put when the job fails so callers can tell
// where.
type JobSnapshot struct {
	ID          string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	Phase       string    `json:"phase"`
	Filename    string    `json:"filename"`
	ContentHash string    `json:"content_hash,omitempty"`
	Progress    Progress  `json:"progress"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Job is one uploaded manual moving through parse, chunk and embed. The
// upload bytes are held only until parsing finishes.
type Job struct {
	ID          string
	Filename    string
	ContentHash string

	mu    sync.Mutex
	state JobSnapshot
	data  []byte
}

// NewJob creates a queued job for an uploaded file.
func NewJob(id, filename string, data []byte) *Job {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	now := time.Now()
	return &Job{
		ID:          id,
		Filename:    filename,
		ContentHash: hash,
		data:        data,
		state: JobSnapshot{
			ID:          id,
			Status:      StatusQueued,
			Phase:       string(StatusQueued),
			Filename:    filename,
			ContentHash: hash,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

func (j *Job) update(fn func(s *JobSnapshot)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.state)
	j.state.UpdatedAt = time.Now()
}

func (j *Job) enter(status JobStatus) {
	j.update(func(s *JobSnapshot) {
		s.Status = status
		s.Phase = string(status)
	})
}

func (j *Job) fail(msg string) {
	j.update(func(s *JobSnapshot) {
		s.Status = StatusFailed
		s.Progress.Errors = append(s.Progress.Errors, msg)
	})
}

func (j *Job) complete() {
	j.update(func(s *JobSnapshot) {
		s.Status = StatusCompleted
		s.Phase = "done"
	})
}

func (j *Job) setTotals(sections, chunks int) {
	j.update(func(s *JobSnapshot) {
		s.Progress.Sections = sections
		s.Progress.TotalChunks = chunks
	})
}

func (j *Job) setProcessed(n int) {
	j.update(func(s *JobSnapshot) { s.Progress.ChunksProcessed = n })
}

// takeData hands the upload to the caller and forgets it.
func (j *Job) takeData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	data := j.data
	j.data = nil
	return data
}

// Snapshot returns a copy of the job state that is safe to serialize.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.state
	s.Progress.Errors = slices.Clone(s.Progress.Errors)
	if s.Progress.Errors == nil {
		s.Progress.Errors = []string{}
	}
	return s
}

func (j *Job) updatedAt() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state.UpdatedAt
}

// jobRegistry keeps jobs addressable by ID until they go idle for ttl.
type jobRegistry struct {
	mu   sync.RWMutex
	ttl  time.Duration
	jobs map[string]*Job
}

func newJobRegistry(ttl time.Duration) *jobRegistry {
	return &jobRegistry{ttl: ttl, jobs: make(map[string]*Job)}
}

func (r *jobRegistry) add(j *Job) {
	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
}

func (r *jobRegistry) get(id string) *Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jobs[id]
}

// evict drops jobs last touched before now-ttl and returns how many went.
func (r *jobRegistry) evict(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, j := range r.jobs {
		if now.Sub(j.updatedAt()) > r.ttl {
			delete(r.jobs, id)
			n++
		}
	}
	return n
}
