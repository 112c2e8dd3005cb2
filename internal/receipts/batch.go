package receipts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
	"github.com/joseph-ayodele/receipt-facts/internal/core/async"
	"github.com/joseph-ayodele/receipt-facts/internal/ingest"
)

// FileResult is the per-file outcome of a directory run.
type FileResult struct {
	Path    string   `json:"path"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Err     string   `json:"error,omitempty"`
}

type BatchOptions struct {
	Workers       int
	EscalateBelow float64
	IncludeExts   []string
	SkipHidden    bool
	// FileTimeout bounds one file's processing, AI call included.
	FileTimeout time.Duration
}

// ProcessFile reads one text dump and processes it; the path is the document ID.
func (s *Service) ProcessFile(ctx context.Context, path string, escalateBelow float64) (Outcome, error) {
	text, err := ingest.ReadText(path)
	if err != nil {
		return Outcome{}, err
	}
	return s.Process(ctx, Document{ID: path, Text: text}, escalateBelow), nil
}

// ProcessDirectory processes every text dump under root on a bounded worker
// pool. Results are sorted by path.
func (s *Service) ProcessDirectory(ctx context.Context, root string, opts BatchOptions) ([]FileResult, ingest.DirStats, error) {
	paths, walkErrs, stats, err := ingest.ListDirectory(ctx, root, opts.IncludeExts, opts.SkipHidden)
	if err != nil {
		return nil, stats, common.WrapError(err, "list "+root)
	}

	var (
		mu      sync.Mutex
		results = make([]FileResult, 0, len(paths)+len(walkErrs))
	)
	for _, we := range walkErrs {
		results = append(results, FileResult{Path: we.Path, Err: we.Err})
	}

	record := func(r FileResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
		switch {
		case r.Err != "":
			stats.Failed++
		default:
			stats.Succeeded++
			if r.Outcome.Escalated {
				stats.Escalated++
			}
		}
	}

	q := async.NewWorkerQueue(func(jobCtx context.Context, job async.Job) error {
		out, err := s.ProcessFile(jobCtx, job.Path, opts.EscalateBelow)
		if err != nil {
			record(FileResult{Path: job.Path, Err: err.Error()})
			return err
		}
		record(FileResult{Path: job.Path, Outcome: &out})
		s.logger.Debug("batch.file.done",
			"path", job.Path,
			"req_id", job.TraceID,
			"confidence", out.Heuristic.Confidence,
			"escalated", out.Escalated,
		)
		return nil
	}, s.logger, async.WithWorkers(opts.Workers), async.WithQueueSize(len(paths)),
		async.WithProcessTimeout(opts.FileTimeout), async.WithBaseContext(ctx))

	var enqueueErr error
	for _, p := range paths {
		if enqueueErr = q.Enqueue(ctx, async.NewJob(p)); enqueueErr != nil {
			break
		}
	}
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	s.logger.Info("batch.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"escalated", stats.Escalated,
		"failed", stats.Failed,
	)
	return results, stats, enqueueErr
}
