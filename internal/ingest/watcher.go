package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string // directories to watch (recursive)
	IncludeExts []string // defaults to constants.TextExtensions
	InitialScan bool     // if true, walk roots and emit existing files
	SkipHidden  bool
	Debounce    time.Duration // coalesce rapid write bursts
	Logger      *slog.Logger
}

// StartWatcher emits paths of text dumps created or rewritten under the
// roots until ctx is done. Both channels are closed when it stops.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	exts := extSet(cfg.IncludeExts)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if cfg.SkipHidden && path != root && IsHidden(path) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return w.Add(path)
			}
			if cfg.InitialScan && allowed(path, exts) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			_ = w.Close()
			return nil, nil, err
		}
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("watcher close error", "error", err)
			}
		}()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		pending := map[string]struct{}{}
		var fire <-chan time.Time
		flush := func() bool {
			for p := range pending {
				delete(pending, p)
				if !emit(p) {
					return false
				}
			}
			return true
		}

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					// new directories are watched too; adding a file fails and is ignored
					if !(cfg.SkipHidden && IsHidden(e.Name)) {
						_ = w.Add(e.Name)
					}
				}
				if cfg.SkipHidden && IsHidden(e.Name) {
					continue
				}
				if !allowed(e.Name, exts) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write)) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !flush() {
						return
					}
					continue
				}
				fire = time.After(cfg.Debounce)
			case <-fire:
				fire = nil
				if !flush() {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
