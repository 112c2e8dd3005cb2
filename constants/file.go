package constants

import "strings"

// TextExtensions holds the file extensions accepted as OCR text dumps.
var TextExtensions = map[string]struct{}{
	"txt":  {},
	"text": {},
	"ocr":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
