package ocr

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF         = regexp.MustCompile(`\r\n?`)
	reMultiSpace   = regexp.MustCompile(` {2,}`)
	reDecimalComma = regexp.MustCompile(`(\d),(\d{2})(\D|$)`)
)

// exotic horizontal spaces OCR engines emit between digit groups and words.
var spaceReplacer = strings.NewReplacer(
	"\t", " ",
	"\v", " ",
	"\f", " ",
	"\u00a0", " ",
	"\u2000", " ", "\u2001", " ", "\u2002", " ", "\u2003", " ", "\u2004", " ",
	"\u2005", " ", "\u2006", " ", "\u2007", " ", "\u2008", " ", "\u2009", " ",
	"\u200a", " ",
	"\u202f", " ",
	"\u205f", " ",
	"\u3000", " ",
)

// Normalize returns the case-folded variant used for keyword and bank matching.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	return Fold(NormalizeNumbers(s))
}

// NormalizeNumbers repairs OCR artifacts but preserves case. Date and amount
// patterns run against this variant.
func NormalizeNumbers(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFC.String(s)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = spaceReplacer.Replace(s)
	s = reMultiSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	s = strings.Join(lines, "\n")

	s = fixDigitGlyphs(s)
	// a comma can only be rewritten once its neighbours are real digits
	s = reDecimalComma.ReplaceAllString(s, "${1}.${2}${3}")
	return s
}

// Fold lowercases s the same way Normalize does. A Caser keeps state, so
// each call builds its own.
func Fold(s string) string {
	return cases.Lower(language.Russian).String(s)
}

func glyphDigit(r rune) (rune, bool) {
	switch r {
	case 'O', 'o', 'О', 'о':
		return '0', true
	case 'l', 'I', '|':
		return '1', true
	}
	return 0, false
}

// fixDigitGlyphs rewrites runs of digit look-alike glyphs that touch a digit.
// Each glyph becomes its own digit, so "1OO" reads "100" and "1Ol" reads
// "101". A run that only leads into a digit must start at a word boundary,
// which keeps the tail of "Итого10" intact.
func fixDigitGlyphs(s string) string {
	rs := []rune(s)
	changed := false

	for i := 0; i < len(rs); {
		if _, ok := glyphDigit(rs[i]); !ok {
			i++
			continue
		}
		j := i + 1
		for j < len(rs) {
			if _, ok := glyphDigit(rs[j]); !ok {
				break
			}
			j++
		}

		var before, after rune
		if i > 0 {
			before = rs[i-1]
		}
		if j < len(rs) {
			after = rs[j]
		}

		if unicode.IsDigit(before) || (unicode.IsDigit(after) && !isLetter(before)) {
			for k := i; k < j; k++ {
				rs[k], _ = glyphDigit(rs[k])
			}
			changed = true
		}
		i = j
	}

	if !changed {
		return s
	}
	return string(rs)
}

func isLetter(r rune) bool {
	return r != 0 && unicode.IsLetter(r)
}
