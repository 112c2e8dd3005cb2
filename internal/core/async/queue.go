package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrQueueClosed is returned by Enqueue once Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one unit of batch work, usually one OCR text file.
type Job struct {
	ID          uuid.UUID
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

// NewJob stamps a job for path with fresh identifiers.
func NewJob(path string) Job {
	return Job{
		ID:          uuid.New(),
		Path:        path,
		SubmittedAt: time.Now(),
		TraceID:     uuid.New().String(),
	}
}

// Handler processes a single job. Errors are logged by the queue.
type Handler func(ctx context.Context, job Job) error

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
