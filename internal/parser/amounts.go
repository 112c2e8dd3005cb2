package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-facts/internal/core/ocr"
)

const (
	keywordGap    = 60
	contextRadius = 20
	maxDigits     = 10
)

var (
	// AmountMin and AmountMax bound a resolved heuristic amount.
	AmountMin = decimal.NewFromInt(1)
	AmountMax = decimal.NewFromInt(10_000_000)

	// numeric token: grouped thousands (space or dot) or a plain run of
	// digits, optional 1-2 decimals. The trailing \D|$ keeps the thousands
	// group from eating the first digits of an adjacent number.
	amountToken     = `(\d{1,3}(?:[ .]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`
	currencyMarker  = `(?:\s?(?:₽|руб\.?|р\.|rub))?`
	reAmountToken   = regexp.MustCompile(amountToken + currencyMarker + `(?:\D|$)`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	keywordPatterns = buildKeywordPatterns()
)

type keywordPattern struct {
	keyword string
	rank    int
	re      *regexp.Regexp
}

func buildKeywordPatterns() []keywordPattern {
	out := make([]keywordPattern, len(amountKeywords))
	for i, kw := range amountKeywords {
		out[i] = keywordPattern{
			keyword: kw,
			rank:    i,
			re: regexp.MustCompile(`(?i)` + keywordRegexp(kw) +
				`\D{0,` + strconv.Itoa(keywordGap) + `}?` + amountToken + currencyMarker + `(?:\D|$)`),
		}
	}
	return out
}

// keywordRegexp lets the words of a keyword phrase sit on separate lines.
func keywordRegexp(kw string) string {
	return strings.ReplaceAll(regexp.QuoteMeta(kw), " ", `\s`)
}

// AmountCandidate is a numeric token attributed to a total keyword.
type AmountCandidate struct {
	Value   decimal.Decimal
	Keyword string
	Rank    int
}

// collectAmounts runs both passes over the numbers-safe text. Overlapping
// candidates are expected and resolved by ranking.
func collectAmounts(numText string) []AmountCandidate {
	cands := keywordProximityPass(numText)
	return append(cands, perLinePass(numText)...)
}

// keywordProximityPass looks for keyword ... number across the whole text
// with whitespace runs collapsed. The number may sit lines below its
// keyword, but the bad-context window never reaches past the keyword's line
// or the number's line.
func keywordProximityPass(numText string) []AmountCandidate {
	flat := newText(collapseWhitespace(numText))

	var out []AmountCandidate
	for _, kp := range keywordPatterns {
		for _, m := range kp.re.FindAllStringSubmatchIndex(flat.s, -1) {
			start, tokenEnd := flat.runeOffset(m[0]), flat.runeOffset(m[3])
			window := ocr.Fold(flat.lineWindow(start, tokenEnd, contextRadius))
			if isBadContext(window) {
				continue
			}
			v, ok := normalizeAmount(flat.s[m[2]:m[3]])
			if !ok {
				continue
			}
			out = append(out, AmountCandidate{Value: v, Keyword: kp.keyword, Rank: kp.rank})
		}
	}
	return out
}

// collapseWhitespace turns every whitespace run into one space, or into one
// line break when the run spans lines.
func collapseWhitespace(s string) string {
	return reWhitespace.ReplaceAllStringFunc(s, func(ws string) string {
		if strings.Contains(ws, "\n") {
			return "\n"
		}
		return " "
	})
}

// perLinePass takes the first number on each line that carries a keyword,
// preferring numbers that follow the keyword.
func perLinePass(numText string) []AmountCandidate {
	var out []AmountCandidate
	for _, line := range strings.Split(numText, "\n") {
		folded := ocr.Fold(line)
		kp, idx, ok := bestKeyword(folded)
		if !ok || isBadContext(folded) {
			continue
		}

		tail := folded[idx+len(kp.keyword):]
		m := reAmountToken.FindStringSubmatch(tail)
		if m == nil {
			m = reAmountToken.FindStringSubmatch(folded)
		}
		if m == nil {
			continue
		}
		v, ok := normalizeAmount(m[1])
		if !ok {
			continue
		}
		out = append(out, AmountCandidate{Value: v, Keyword: kp.keyword, Rank: kp.rank})
	}
	return out
}

func bestKeyword(folded string) (keywordPattern, int, bool) {
	for _, kp := range keywordPatterns {
		if idx := strings.Index(folded, kp.keyword); idx >= 0 {
			return kp, idx, true
		}
	}
	return keywordPattern{}, -1, false
}

func isBadContext(window string) bool {
	return containsAny(window, badContext) || containsAny(window, maskMarkers)
}

// pickAmount ranks by keyword priority, then by the larger value.
func pickAmount(cands []AmountCandidate) (AmountCandidate, bool) {
	if len(cands) == 0 {
		return AmountCandidate{}, false
	}
	sorted := append([]AmountCandidate(nil), cands...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rank != sorted[j].Rank {
			return sorted[i].Rank < sorted[j].Rank
		}
		return sorted[i].Value.GreaterThan(sorted[j].Value)
	})
	return sorted[0], true
}

// normalizeAmount turns a numeric token into a 2dp decimal. Spaces are
// thousands separators, a comma is the decimal point, and when several
// periods remain only the last one is kept as the decimal point. Values
// outside [AmountMin, AmountMax] are rejected.
func normalizeAmount(token string) (decimal.Decimal, bool) {
	s := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(token)
	s = strings.ReplaceAll(s, ",", ".")
	if n := strings.Count(s, "."); n > 1 {
		last := strings.LastIndex(s, ".")
		s = strings.ReplaceAll(s[:last], ".", "") + s[last:]
	}

	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits == 0 || digits > maxDigits {
		return decimal.Decimal{}, false
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	v = v.Round(2)
	if v.LessThan(AmountMin) || v.GreaterThan(AmountMax) {
		return decimal.Decimal{}, false
	}
	return v, true
}
