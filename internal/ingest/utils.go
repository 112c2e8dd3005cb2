package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/receipt-facts/constants"
)

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return base != "." && base != ".." && strings.HasPrefix(base, ".")
}

func extSet(includeExts []string) map[string]struct{} {
	exts := map[string]struct{}{}
	for _, e := range includeExts {
		if e = constants.NormalizeExt(e); e != "" {
			exts[e] = struct{}{}
		}
	}
	if len(exts) == 0 {
		for e := range constants.TextExtensions {
			exts[e] = struct{}{}
		}
	}
	return exts
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}
