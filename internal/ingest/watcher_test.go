package ingest

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestStartWatcher_EmitsNewTextFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "old.txt"), "Итого: 1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		SkipHidden:  true,
		Debounce:    10 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := next(t, events); got != filepath.Join(root, "old.txt") {
		t.Fatalf("initial event = %q", got)
	}

	writeFile(t, filepath.Join(root, "ignored.png"), "x")
	writeFile(t, filepath.Join(root, ".tmp.txt"), "x")
	writeFile(t, filepath.Join(root, "new.txt"), "Итого: 2")

	if got := next(t, events); got != filepath.Join(root, "new.txt") {
		t.Errorf("event = %q, want new.txt", got)
	}

	cancel()
	for range events {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	if _, _, err := StartWatcher(context.Background(), WatchConfig{}); err == nil {
		t.Error("StartWatcher with no roots = nil error")
	}
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}
