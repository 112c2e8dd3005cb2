package ingest

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// MaxFileBytes caps how much of a text dump is read.
const MaxFileBytes = 1 << 20

// ReadText reads an OCR text dump. Invalid UTF-8 is replaced rather than
// rejected, since OCR output is often slightly broken.
func ReadText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, MaxFileBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	s := strings.TrimPrefix(string(b), "\ufeff")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\ufffd")
	}
	return s, nil
}
