package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dsgnlab/linkograph/internal/analysis"
	"github.com/dsgnlab/linkograph/internal/archive"
	"github.com/dsgnlab/linkograph/internal/config"
	"github.com/dsgnlab/linkograph/internal/segmenter"
)

// Orchestrator manages the protocol analysis pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	registry *analysis.Registry
	arch     *archive.Client
	log      *slog.Logger
	cfg      config.Config
	segCfg   segmenter.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates and starts the pipeline.
func NewOrchestrator(cfg config.Config, reg *analysis.Registry, arch *archive.Client, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		registry: reg,
		arch:     arch,
		log:      log,
		cfg:      cfg,
		segCfg: segmenter.Config{
			MinWords: cfg.MinMoveWords,
			MaxWords: cfg.MaxMoveWords,
		},
	}
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.registry, o.arch, o.log, o.segCfg)
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

	// Evict expired jobs and idle sessions.
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
				o.registry.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
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

// Registry returns the session registry for direct use by API handlers.
func (o *Orchestrator) Registry() *analysis.Registry {
	return o.registry
}

// Archive returns the archive client, nil when mirroring is disabled.
func (o *Orchestrator) Archive() *archive.Client {
	return o.arch
}
