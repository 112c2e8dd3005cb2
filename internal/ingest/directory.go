package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Escalated uint32
	Failed    uint32
}

// WalkError is a path the walk could not read.
type WalkError struct {
	Path string
	Err  string
}

// ListDirectory walks root and returns the text dumps under it, sorted by
// path. includeExts defaults to constants.TextExtensions. Unreadable entries
// are reported and the walk continues.
func ListDirectory(ctx context.Context, root string, includeExts []string, skipHidden bool) ([]string, []WalkError, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}
	exts := extSet(includeExts)

	var (
		paths  []string
		failed []WalkError
		stats  DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			failed = append(failed, WalkError{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path, exts) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, failed, stats, fmt.Errorf("walk: %w", err)
	}
	return paths, failed, stats, nil
}
