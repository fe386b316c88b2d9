package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/docforge/docforge/internal/identify"
	"github.com/docforge/docforge/internal/model"
)

// Job is one document to run through the processor. Results are delivered
// through the callback; ordering across documents is not guaranteed.
type Job struct {
	Filename    string
	Raw         []byte
	Template    *model.Template
	Signatures  map[string]identify.Signature
	SubmittedAt time.Time
	Done        func(*Extraction, error)
}

// Queue runs jobs on a bounded worker pool.
type Queue struct {
	proc    *Processor
	logger  *slog.Logger
	workers int

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func NewQueue(proc *Processor, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ext, err := q.proc.ProcessDocument(job.Raw, job.Filename, job.Template, job.Signatures)
					if err != nil {
						q.logger.Error("processing failed", "worker_id", workerID, "filename", job.Filename, "error", err)
					} else {
						q.logger.Info("processed document", "worker_id", workerID, "filename", job.Filename)
					}
					if job.Done != nil {
						job.Done(ext, err)
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// ErrQueueClosed is returned by Enqueue after Shutdown has begun. The job's
// Done callback is never invoked in that case; the caller owns the failure.
var ErrQueueClosed = errors.New("queue is shut down")

func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "filename", job.Filename)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued document for processing", "filename", job.Filename)
	default:
		q.logger.Warn("queue full, applying backpressure", "filename", job.Filename)
		q.ch <- job
	}
	return nil
}

func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
