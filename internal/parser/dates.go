package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/receipt-facts/internal/core/ocr"
)

const (
	// YearMin is the earliest year a receipt date may carry.
	YearMin = 2018

	snippetRadius = 80
)

type dateFamily struct {
	name      string
	re        *regexp.Regexp
	shortYear bool
	yearFirst bool
}

// dateFamilies run in this order; the order decides which occurrence of a
// repeated date is kept.
var dateFamilies = []dateFamily{
	{
		name: "dmy_time_seconds",
		re:   regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})[ ,T]*(?:в\s*)?(\d{1,2}:\d{2}:\d{2})\b`),
	},
	{
		name: "dmy_time",
		re:   regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})[ ,T]*(?:в\s*)?(\d{1,2}:\d{2})\b`),
	},
	{
		name: "dmy",
		re:   regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{4})\b`),
	},
	{
		name:      "dmy_short",
		re:        regexp.MustCompile(`\b(\d{1,2})[./-](\d{1,2})[./-](\d{2})\b(?:[ ,]+(?:в\s*)?(\d{1,2}:\d{2}(?::\d{2})?)\b)?`),
		shortYear: true,
	},
	{
		name:      "ymd_time",
		re:        regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})[T ](\d{1,2}:\d{2}(?::\d{2})?)\b`),
		yearFirst: true,
	},
}

var (
	reClock     = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	reNamedDate = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)\s+(\d{4})(?:\s*(?:года|г\.?))?(?:,?\s*в\s+(\d{1,2}:\d{2}(?::\d{2})?))?`)
)

// DateCandidate is a syntactically valid date found in the text, with the
// context signals used to rank it.
type DateCandidate struct {
	Day   int
	Month int
	Year  int
	// Time is "HH:MM" or "HH:MM:SS", empty when no time was attached.
	Time              string
	Position          int
	HasContextKeyword bool
	HasNearbyTime     bool
	InFirstFifth      bool
}

// Date formats the candidate as an ISO calendar date.
func (c DateCandidate) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", c.Year, c.Month, c.Day)
}

// String is the externally visible form: the ISO date plus the time when known.
func (c DateCandidate) String() string {
	if c.Time == "" {
		return c.Date()
	}
	return c.Date() + " " + c.Time
}

type dateKey struct{ day, month, year int }

// collectDates scans every family and returns deduplicated candidates with
// their context signals, in scan order.
func collectDates(t *text, now time.Time) []DateCandidate {
	seen := make(map[dateKey]struct{})
	var out []DateCandidate

	for _, fam := range dateFamilies {
		for _, m := range fam.re.FindAllStringSubmatchIndex(t.s, -1) {
			g := func(i int) string {
				// families without a time group yield shorter index slices
				if 2*i+1 >= len(m) || m[2*i] < 0 {
					return ""
				}
				return t.s[m[2*i]:m[2*i+1]]
			}

			var d, mo, y int
			if fam.yearFirst {
				y, mo, d = atoi(g(1)), atoi(g(2)), atoi(g(3))
			} else {
				d, mo, y = atoi(g(1)), atoi(g(2)), atoi(g(3))
			}
			if fam.shortYear {
				y += 2000
			}
			if !validDate(d, mo, y, now) {
				continue
			}

			key := dateKey{d, mo, y}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			pos := t.runeOffset(m[0])
			snippet := ocr.Fold(t.around(pos, pos, snippetRadius))
			out = append(out, DateCandidate{
				Day:               d,
				Month:             mo,
				Year:              y,
				Time:              normalizeClock(g(4)),
				Position:          pos,
				HasContextKeyword: containsAny(snippet, dateContext),
				HasNearbyTime:     reClock.MatchString(snippet),
				InFirstFifth:      pos < t.runeLen()/5,
			})
		}
	}
	return out
}

// pickDate filters candidates by their context signals and returns the best
// one. When no candidate carries a signal, the unfiltered set is ranked.
func pickDate(cands []DateCandidate) (DateCandidate, bool) {
	if len(cands) == 0 {
		return DateCandidate{}, false
	}

	var filtered []DateCandidate
	for _, c := range cands {
		if c.InFirstFifth || c.HasContextKeyword || c.HasNearbyTime {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		filtered = append(filtered, cands...)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if (a.Time != "") != (b.Time != "") {
			return a.Time != ""
		}
		return a.HasContextKeyword && !b.HasContextKeyword
	})
	return filtered[0], true
}

// namedDate handles human-written dates such as "15 марта 2024 в 14:30".
// Only consulted when no numeric date was found at all.
func namedDate(t *text, now time.Time) (string, bool) {
	m := reNamedDate.FindStringSubmatch(t.s)
	if m == nil {
		return "", false
	}
	month, ok := genitiveMonths[ocr.Fold(m[2])]
	if !ok {
		return "", false
	}
	c := DateCandidate{Day: atoi(m[1]), Month: month, Year: atoi(m[3]), Time: normalizeClock(m[4])}
	if !validDate(c.Day, c.Month, c.Year, now) {
		return "", false
	}
	return c.String(), true
}

// validDate bounds each component separately. Day 31 in a 30-day month passes.
func validDate(d, m, y int, now time.Time) bool {
	if d < 1 || d > 31 {
		return false
	}
	if m < 1 || m > 12 {
		return false
	}
	return y >= YearMin && y <= now.Year()
}

// normalizeClock pads the hour to two digits and drops impossible times.
func normalizeClock(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(s, ":")
	limits := []int{23, 59, 59}
	for i, p := range parts {
		if v := atoi(p); v < 0 || v > limits[i] {
			return ""
		}
	}
	if len(parts[0]) == 1 {
		parts[0] = "0" + parts[0]
	}
	return strings.Join(parts, ":")
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
