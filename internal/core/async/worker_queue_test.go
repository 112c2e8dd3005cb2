package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWorkerQueue_ProcessesEveryJob(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	q := NewWorkerQueue(func(ctx context.Context, job Job) error {
		if common.SourceFromContext(ctx) != job.Path {
			t.Errorf("source in context = %q, want %q", common.SourceFromContext(ctx), job.Path)
		}
		if common.RequestIDFromContext(ctx) != job.TraceID {
			t.Errorf("request id not propagated for %s", job.Path)
		}
		mu.Lock()
		seen = append(seen, job.Path)
		mu.Unlock()
		return nil
	}, discardLogger(), WithWorkers(3), WithQueueSize(2))

	want := []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt", "f.txt"}
	for _, p := range want {
		if err := q.Enqueue(context.Background(), NewJob(p)); err != nil {
			t.Fatalf("Enqueue(%s): %v", p, err)
		}
	}
	q.Shutdown(context.Background())

	sort.Strings(seen)
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Errorf("processed jobs (-want +got):\n%s", diff)
	}
}

func TestWorkerQueue_BoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	q := NewWorkerQueue(func(ctx context.Context, job Job) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	}, discardLogger(), WithWorkers(2))

	for i := 0; i < 10; i++ {
		_ = q.Enqueue(context.Background(), NewJob("f"))
	}
	q.Shutdown(context.Background())

	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want at most 2", p)
	}
}

func TestWorkerQueue_HandlerErrorsDoNotStopWorkers(t *testing.T) {
	var done atomic.Int32
	q := NewWorkerQueue(func(ctx context.Context, job Job) error {
		done.Add(1)
		return errors.New("boom")
	}, discardLogger(), WithWorkers(1))

	for i := 0; i < 3; i++ {
		_ = q.Enqueue(context.Background(), NewJob("f"))
	}
	q.Shutdown(context.Background())
	if n := done.Load(); n != 3 {
		t.Errorf("handled %d jobs, want 3", n)
	}
}

func TestWorkerQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewWorkerQueue(func(context.Context, Job) error { return nil }, discardLogger())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), NewJob("late.txt")); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue after Shutdown = %v, want ErrQueueClosed", err)
	}
}

func TestWorkerQueue_EnqueueHonoursContext(t *testing.T) {
	release := make(chan struct{})
	q := NewWorkerQueue(func(context.Context, Job) error {
		<-release
		return nil
	}, discardLogger(), WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(release)
		q.Shutdown(context.Background())
	}()

	// one job held by the worker, one filling the buffer
	_ = q.Enqueue(context.Background(), NewJob("1"))
	_ = q.Enqueue(context.Background(), NewJob("2"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, NewJob("3")); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Enqueue on full queue = %v, want deadline exceeded", err)
	}
}

func TestWorkerQueue_ShutdownCancelsInFlightJobs(t *testing.T) {
	started := make(chan struct{})
	var finished atomic.Bool
	q := NewWorkerQueue(func(ctx context.Context, job Job) error {
		close(started)
		<-ctx.Done()
		finished.Store(true)
		return ctx.Err()
	}, discardLogger(), WithWorkers(1), WithProcessTimeout(time.Minute))

	if err := q.Enqueue(context.Background(), NewJob("slow.txt")); err != nil {
		t.Fatal(err)
	}
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Shutdown(ctx)

	if !finished.Load() {
		t.Error("Shutdown returned before the in-flight job stopped")
	}
}

func TestWorkerQueue_BaseContextCancelsJobs(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	errs := make(chan error, 1)
	q := NewWorkerQueue(func(ctx context.Context, job Job) error {
		close(started)
		<-ctx.Done()
		errs <- ctx.Err()
		return nil
	}, discardLogger(), WithWorkers(1), WithProcessTimeout(time.Minute), WithBaseContext(base))

	_ = q.Enqueue(context.Background(), NewJob("slow.txt"))
	<-started
	cancel()
	q.Shutdown(context.Background())

	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Errorf("job context error = %v, want context.Canceled", err)
	}
}
