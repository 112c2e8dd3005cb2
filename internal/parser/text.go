package parser

import "unicode/utf8"

// text pairs a string with its runes so that offsets and snippets are
// counted in characters rather than bytes.
type text struct {
	s     string
	runes []rune
}

func newText(s string) *text {
	return &text{s: s, runes: []rune(s)}
}

func (t *text) runeLen() int { return len(t.runes) }

// runeOffset converts a byte offset into t.s to a rune offset.
func (t *text) runeOffset(byteOff int) int {
	return utf8.RuneCountInString(t.s[:byteOff])
}

// around returns the runes in [start-radius, end+radius), clamped to the text.
func (t *text) around(start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(t.runes) {
		hi = len(t.runes)
	}
	if lo >= hi {
		return ""
	}
	return string(t.runes[lo:hi])
}

// lineWindow is like around but stops at the line break before start and
// the line break at or after end.
func (t *text) lineWindow(start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	for i := start - 1; i >= lo; i-- {
		if t.runes[i] == '\n' {
			lo = i + 1
			break
		}
	}
	hi := end + radius
	if hi > len(t.runes) {
		hi = len(t.runes)
	}
	for i := end; i < hi; i++ {
		if t.runes[i] == '\n' {
			hi = i
			break
		}
	}
	if lo >= hi {
		return ""
	}
	return string(t.runes[lo:hi])
}

// truncateRunes keeps at most n runes of s.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
