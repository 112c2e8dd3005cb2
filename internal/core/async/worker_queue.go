package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
)

// WorkerQueue runs a Handler on a fixed number of workers fed by a bounded
// channel. Enqueue blocks when the channel is full. Job contexts derive from
// the queue's base context, which Shutdown cancels when its own ctx ends.
type WorkerQueue struct {
	handle  Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*WorkerQueue)(nil)

type Option func(*WorkerQueue)

func WithWorkers(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *WorkerQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
// WithBaseContext makes every job context a child of ctx, so cancelling it
// stops in-flight jobs.
func WithBaseContext(ctx context.Context) Option {
	return func(q *WorkerQueue) {
		if ctx != nil {
			q.parent = ctx
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *WorkerQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewWorkerQueue(handle Handler, logger *slog.Logger, opts ...Option) *WorkerQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &WorkerQueue{
		handle:  handle,
		logger:  logger,
		workers: 4,
		timeout: time.Minute,
		ch:      make(chan Job, 256),
		parent:  context.Background(),
	}
	for _, o := range opts {
		o(q)
	}
	q.ctx, q.cancel = context.WithCancel(q.parent)
	q.start()
	return q
}

func (q *WorkerQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *WorkerQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(q.ctx, q.timeout)
	defer cancel()
	ctx = common.WithRequestID(ctx, job.TraceID)
	ctx = common.WithSource(ctx, job.Path)

	start := time.Now()
	if err := q.handle(ctx, job); err != nil {
		q.logger.Error("job failed",
			"worker_id", workerID, "job_id", job.ID, "path", job.Path, "req_id", job.TraceID, "error", err)
		return
	}
	q.logger.Debug("job done",
		"worker_id", workerID, "job_id", job.ID, "path", job.Path,
		"elapsed_ms", time.Since(start).Milliseconds())
}

// Enqueue hands job to the workers, waiting for room when the queue is full.
// It gives up when ctx is done.
func (q *WorkerQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.ID, "path", job.Path)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		return nil
	default:
	}
	q.logger.Debug("queue full, applying backpressure", "job_id", job.ID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish. When ctx
// ends first, in-flight jobs are cancelled and Shutdown still waits for the
// workers to return, so no handler outlives it.
func (q *WorkerQueue) Shutdown(ctx context.Context) {
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
		q.logger.Warn("shutdown interrupted by context, cancelling jobs")
		q.cancel()
		<-done
	case <-done:
		q.logger.Debug("queue drained, shutdown complete")
	}
	q.cancel()
}
