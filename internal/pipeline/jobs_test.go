package pipeline

import (
	"testing"
	"time"
)

func TestNewJob(t *testing.T) {
	data := []byte("hello world")
	job := NewJob("job-1", "manual.txt", data)

	// SHA-256 of "hello world".
	const wantHash = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	snap := job.Snapshot()
	if job.ContentHash != wantHash || snap.ContentHash != wantHash {
		t.Errorf("content hash = %q / %q", job.ContentHash, snap.ContentHash)
	}
	if snap.Status != StatusQueued || snap.Phase != "queued" {
		t.Errorf("initial state = %s/%s", snap.Status, snap.Phase)
	}
	if snap.ID != "job-1" || snap.Filename != "manual.txt" {
		t.Errorf("snapshot identity = %q %q", snap.ID, snap.Filename)
	}
	if snap.Progress.Errors == nil {
		t.Error("Errors should serialize as [] not null")
	}

	if got := job.takeData(); string(got) != "hello world" {
		t.Errorf("takeData = %q", got)
	}
	if job.takeData() != nil {
		t.Error("upload should be released after the first take")
	}
}

func TestJob_Lifecycle(t *testing.T) {
	job := NewJob("job-2", "manual.md", nil)

	for _, st := range []JobStatus{StatusParsing, StatusChunking, StatusEmbedding} {
		before := job.Snapshot().UpdatedAt
		time.Sleep(time.Millisecond)
		job.enter(st)
		snap := job.Snapshot()
		if snap.Status != st || snap.Phase != string(st) {
			t.Errorf("after enter(%s): %s/%s", st, snap.Status, snap.Phase)
		}
		if !snap.UpdatedAt.After(before) {
			t.Errorf("UpdatedAt did not advance on %s", st)
		}
	}

	job.setTotals(7, 42)
	job.setProcessed(1)
	job.setProcessed(42)
	job.complete()

	snap := job.Snapshot()
	if snap.Status != StatusCompleted || snap.Phase != "done" {
		t.Errorf("final state = %s/%s", snap.Status, snap.Phase)
	}
	if p := snap.Progress; p.Sections != 7 || p.TotalChunks != 42 || p.ChunksProcessed != 42 {
		t.Errorf("progress = %+v", p)
	}
}

func TestJob_FailKeepsPhase(t *testing.T) {
	job := NewJob("job-3", "manual.txt", nil)
	job.enter(StatusEmbedding)
	job.fail("embed meyerowitz-ch5-5.3-1: timeout")
	job.fail("second")

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "embedding" {
		t.Errorf("state = %s/%s", snap.Status, snap.Phase)
	}
	if len(snap.Progress.Errors) != 2 || snap.Progress.Errors[0] != "embed meyerowitz-ch5-5.3-1: timeout" {
		t.Errorf("errors = %q", snap.Progress.Errors)
	}

	// Snapshots must not alias the live error slice.
	snap.Progress.Errors[0] = "mutated"
	if job.Snapshot().Progress.Errors[0] == "mutated" {
		t.Error("snapshot shares storage with the job")
	}
}

func TestJobRegistry(t *testing.T) {
	r := newJobRegistry(time.Minute)
	old := NewJob("old", "a.txt", nil)
	fresh := NewJob("new", "b.txt", nil)
	r.add(old)
	r.add(fresh)

	if r.get("old") != old || r.get("missing") != nil {
		t.Fatal("get returned the wrong job")
	}

	if n := r.evict(time.Now()); n != 0 {
		t.Errorf("evicted %d live jobs", n)
	}

	old.state.UpdatedAt = time.Now().Add(-2 * time.Minute)
	if n := r.evict(time.Now()); n != 1 {
		t.Errorf("evict = %d, want 1", n)
	}
	if r.get("old") != nil || r.get("new") != fresh {
		t.Error("only the idle job should be evicted")
	}
	if n := newJobRegistry(time.Minute).evict(time.Now()); n != 0 {
		t.Errorf("empty registry evicted %d", n)
	}
}
