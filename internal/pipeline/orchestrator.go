package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/mdnotion/internal/chunker"
	"github.com/dgallion1/mdnotion/internal/config"
	"github.com/dgallion1/mdnotion/internal/parser"
)

// Orchestrator manages the document upload pipeline.
type Orchestrator struct {
	jobs      *JobStore
	queue     chan *Job
	pages     PageService
	sender    *Sender
	log       *slog.Logger
	cfg       config.Config
	parseOpts parser.Options
	chunkCfg  chunker.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards stopped and sends on queue.
	mu      sync.RWMutex
	stopped bool
}

// ErrStopped is returned by Submit once Stop has been called.
var ErrStopped = errors.New("pipeline is shutting down")

// NewOrchestrator creates the pipeline. Call Start to launch the workers.
func NewOrchestrator(cfg config.Config, pages PageService, log *slog.Logger) (*Orchestrator, error) {
	opts, err := cfg.ParserOptions()
	if err != nil {
		return nil, err
	}
	o := &Orchestrator{
		jobs:      NewJobStore(cfg.JobTTL),
		queue:     make(chan *Job, cfg.MaxQueueSize),
		pages:     pages,
		sender:    NewSender(cfg.ChunkDelay, log),
		log:       log,
		cfg:       cfg,
		parseOpts: opts,
		chunkCfg:  ChunkConfig(cfg),
	}
	return o, nil
}

// ChunkConfig derives chunker settings from the configuration.
func ChunkConfig(cfg config.Config) chunker.Config {
	return chunker.Config{
		MaxBlocks: cfg.ChunkMaxBlocks,
		MaxBytes:  cfg.ChunkMaxBytes,
	}
}

// Start launches worker goroutines. All workers share one Sender, so the
// request spacing holds across concurrent jobs.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.pages, o.sender, o.log, o.parseOpts, o.chunkCfg, o.cfg.ParentPageID)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	close(o.queue)
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.stopped {
		return ErrStopped
	}

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("job queue is full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// ParserOptions returns the options every job is parsed with.
func (o *Orchestrator) ParserOptions() parser.Options {
	return o.parseOpts
}

// ChunkConfig returns the chunker settings every job uses.
func (o *Orchestrator) ChunkConfig() chunker.Config {
	return o.chunkCfg
}
