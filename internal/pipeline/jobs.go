package pipeline

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"sync"
	"time"
)

// JobStatus represents the state of an upload job.
type JobStatus string

const (
	StatusQueued       JobStatus = "queued"
	StatusParsing      JobStatus = "parsing"
	StatusChunking     JobStatus = "chunking"
	StatusCreatingPage JobStatus = "creating_page"
	StatusUploading    JobStatus = "uploading"
	StatusCompleted    JobStatus = "completed"
	StatusPartial      JobStatus = "partial"
	StatusFailed       JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusPartial || s == StatusFailed
}

// Job tracks the state of a single document upload.
type Job struct {
	mu sync.Mutex

	ID       string    `json:"job_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`     // overrides the parsed title when set
	ParentID string    `json:"parent_id"` // empty means the configured default

	PageID  string `json:"page_id,omitempty"`
	PageURL string `json:"page_url,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
}

// Progress tracks processing progress.
type Progress struct {
	TotalBlocks int      `json:"total_blocks"`
	TotalChunks int      `json:"total_chunks"`
	ChunksSent  int      `json:"chunks_sent"`
	BlocksSent  int      `json:"blocks_sent"`
	Warnings    []string `json:"warnings"`
	Errors      []string `json:"errors"`
}

// NewJob creates a queued job for one uploaded file.
func NewJob(filename string, data []byte, parentID, title string) *Job {
	now := time.Now()
	return &Job{
		ID:          NewJobID(),
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Title:       title,
		ParentID:    parentID,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs that have not changed within the TTL.
// Jobs still in flight are kept regardless of age.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		snap := job.Snapshot()
		if snap.Status.Done() && now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Errors = append(j.Progress.Errors, err)
	j.UpdatedAt = time.Now()
}

// AddWarning records a non-fatal parse or upload note.
func (j *Job) AddWarning(msg string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Warnings = append(j.Progress.Warnings, msg)
	j.UpdatedAt = time.Now()
}

// SetPlan records the block and chunk totals once the document is chunked.
func (j *Job) SetPlan(blocks, chunks int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalBlocks = blocks
	j.Progress.TotalChunks = chunks
	j.UpdatedAt = time.Now()
}

// RecordChunkSent counts one delivered chunk of n blocks.
func (j *Job) RecordChunkSent(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ChunksSent++
	j.Progress.BlocksSent += n
	j.UpdatedAt = time.Now()
}

// SetPage records the page created for this job.
func (j *Job) SetPage(id, url string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.PageID = id
	j.PageURL = url
	j.UpdatedAt = time.Now()
}

// SetTitle records the resolved page title.
func (j *Job) SetTitle(title string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the upload once it has been parsed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	ParentID  string    `json:"parent_id,omitempty"`
	PageID    string    `json:"page_id,omitempty"`
	PageURL   string    `json:"page_url,omitempty"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	progress := j.Progress
	progress.Errors = nonNil(slices.Clone(j.Progress.Errors))
	progress.Warnings = nonNil(slices.Clone(j.Progress.Warnings))
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Filename:  j.Filename,
		Title:     j.Title,
		ParentID:  j.ParentID,
		PageID:    j.PageID,
		PageURL:   j.PageURL,
		Progress:  progress,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
