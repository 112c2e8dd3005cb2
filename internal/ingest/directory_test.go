package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.txt"), "Итого: 500")
	writeFile(t, filepath.Join(root, "a.TXT"), "Итого: 100")
	writeFile(t, filepath.Join(root, "nested", "c.ocr"), "Сумма: 1")
	writeFile(t, filepath.Join(root, "scan.png"), "binary")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "skip")
	writeFile(t, filepath.Join(root, ".cache", "d.txt"), "skip")

	paths, failed, stats, err := ListDirectory(context.Background(), root, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(root, "a.TXT"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "nested", "c.ocr"),
	}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}
	if len(failed) != 0 {
		t.Errorf("failed = %v", failed)
	}
	if stats.Matched != 3 {
		t.Errorf("Matched = %d, want 3", stats.Matched)
	}
}

func TestListDirectory_IncludeHiddenAndCustomExts(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden.log"), "x")
	writeFile(t, filepath.Join(root, "a.txt"), "x")

	paths, _, _, err := ListDirectory(context.Background(), root, []string{".LOG"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, ".hidden.log")}, paths); diff != "" {
		t.Errorf("paths (-want +got):\n%s", diff)
	}
}

func TestListDirectory_Errors(t *testing.T) {
	if _, _, _, err := ListDirectory(context.Background(), "  ", nil, true); err == nil {
		t.Error("empty root accepted")
	}
	if _, _, _, err := ListDirectory(context.Background(), filepath.Join(t.TempDir(), "missing"), nil, true); err == nil {
		t.Error("missing root accepted")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, _, err := ListDirectory(ctx, t.TempDir(), nil, true); err == nil {
		t.Error("cancelled context ignored")
	}
}

func TestReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.txt")
	writeFile(t, path, "\ufeffИтого: 500\xff")

	got, err := ReadText(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "Итого: 500\ufffd" {
		t.Errorf("ReadText() = %q", got)
	}

	if _, err := ReadText(filepath.Join(t.TempDir(), "none.txt")); err == nil || !strings.Contains(err.Error(), "none.txt") {
		t.Errorf("missing file error = %v", err)
	}
}
