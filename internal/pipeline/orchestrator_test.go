package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/mdnotion/internal/config"
)

func testConfig() config.Config {
	cfg := config.Defaults()
	cfg.WorkerCount = 2
	cfg.MaxQueueSize = 4
	cfg.ChunkDelay = 0
	cfg.ParentPageID = "parent"
	return cfg
}

func waitDone(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap := job.Snapshot(); snap.Status.Done() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return JobSnapshot{}
}

func TestOrchestrator_ProcessesJobs(t *testing.T) {
	pages := &fakePages{}
	o, err := NewOrchestrator(testConfig(), pages, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o.Start(context.Background())
	defer o.Stop()

	a := NewJob("a.md", []byte("# A\ntext"), "", "")
	b := NewJob("b.txt", []byte("plain"), "", "")
	for _, job := range []*Job{a, b} {
		if err := o.Submit(job); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	for _, job := range []*Job{a, b} {
		if snap := waitDone(t, job); snap.Status != StatusCompleted {
			t.Errorf("job %s: expected completed, got %q %v", job.Filename, snap.Status, snap.Progress.Errors)
		}
		if o.GetJob(job.ID) != job {
			t.Errorf("expected job %s in store", job.ID)
		}
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	cfg := testConfig()
	cfg.MaxQueueSize = 1
	o, err := NewOrchestrator(cfg, &fakePages{}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Not started: the queue never drains.
	if err := o.Submit(NewJob("a.md", nil, "", "")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if o.QueueDepth() != 1 {
		t.Errorf("expected queue depth 1, got %d", o.QueueDepth())
	}
	job := NewJob("b.md", nil, "", "")
	if err := o.Submit(job); err == nil {
		t.Fatal("expected queue full error")
	}
	if snap := o.GetJob(job.ID).Snapshot(); snap.Status != StatusFailed {
		t.Errorf("expected rejected job to be failed, got %q", snap.Status)
	}
}

func TestOrchestrator_RejectsBadPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.FencePolicy = "explode"
	if _, err := NewOrchestrator(cfg, &fakePages{}, discardLogger()); err == nil {
		t.Error("expected error for unknown fence policy")
	}
}

func TestOrchestrator_SubmitAfterStop(t *testing.T) {
	o, err := NewOrchestrator(testConfig(), &fakePages{}, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	o.Start(context.Background())
	o.Stop()

	job := NewJob("late.md", []byte("text"), "", "")
	if err := o.Submit(job); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if o.GetJob(job.ID) != nil {
		t.Error("expected rejected job not to be stored")
	}
	// A second Stop is a no-op.
	o.Stop()
}
