package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
)

var reCodeFence = regexp.MustCompile("(?s)^```[a-zA-Z0-9_-]*\\s*(.*?)\\s*```$")

// dateLayouts are tried in order; only the calendar part is kept.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006",
	"02.01.2006 15:04",
	"02.01.2006 15:04:05",
	"2.1.2006",
	"02/01/2006",
	"2006/01/02",
}

// Bounds are the plausibility limits applied to model output.
type Bounds struct {
	// AmountFloor is exclusive, AmountCeiling inclusive.
	AmountFloor   decimal.Decimal
	AmountCeiling decimal.Decimal
	MaxAgeYears   int
}

func DefaultBounds() Bounds {
	return Bounds{
		AmountFloor:   decimal.Zero,
		AmountCeiling: decimal.NewFromInt(10_000_000),
		MaxAgeYears:   2,
	}
}

// StripCodeFence removes a surrounding markdown code fence, if any.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if m := reCodeFence.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// DecodeResponse turns the model's message content into a schema-checked
// JSON object. Numbers stay as json.Number so amounts keep their digits.
func DecodeResponse(content string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(StripCodeFence(content))))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", common.ErrMalformedResponse, err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not a json object", common.ErrMalformedResponse)
	}
	if err := ValidateResponse(m); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedResponse, err)
	}
	return m, nil
}

// Rejection names a field that was dropped by post-validation.
type Rejection struct {
	Field  string
	Value  string
	Reason string
}

// FieldsFromResponse normalizes a decoded answer into a Result and applies
// the plausibility bounds. Out-of-bounds values are nulled individually.
func FieldsFromResponse(m map[string]any, b Bounds, now time.Time) (Result, []Rejection) {
	res := Empty()
	var rejected []Rejection

	raw, ok := m["amount"]
	if !ok || raw == nil {
		raw = m["sum"]
	}
	if amount, ok := toDecimal(raw); ok {
		amount = amount.Round(2)
		if amount.GreaterThan(b.AmountFloor) && amount.LessThanOrEqual(b.AmountCeiling) {
			res.Amount = decimal.NewNullDecimal(amount)
		} else {
			rejected = append(rejected, Rejection{Field: "amount", Value: amount.String(), Reason: "out of bounds"})
		}
	}

	if s, ok := m["date"].(string); ok {
		if d, ok := parseDate(s); ok {
			if reason := dateRejection(d, b, now); reason == "" {
				res.Date = d.Format("2006-01-02")
			} else {
				rejected = append(rejected, Rejection{Field: "date", Value: s, Reason: reason})
			}
		} else if strings.TrimSpace(s) != "" {
			rejected = append(rejected, Rejection{Field: "date", Value: s, Reason: "unparsable"})
		}
	}

	if s, ok := m["currency"].(string); ok {
		cur := strings.ToUpper(strings.TrimSpace(s))
		if common.CurrencyCode("currency", cur) == nil {
			res.Currency = cur
		}
	}

	if c, ok := toDecimal(m["confidence"]); ok {
		res.Confidence = clamp01(c.InexactFloat64())
	}
	return res, rejected
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(t), true
	case string:
		s := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(strings.TrimSpace(t))
		s = strings.ReplaceAll(s, ",", ".")
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}
	return decimal.Decimal{}, false
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// "2024-03-15 anything" still carries a usable calendar date
	if len(s) > 10 {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func dateRejection(d time.Time, b Bounds, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(today) {
		return "in the future"
	}
	if b.MaxAgeYears > 0 && day.Before(today.AddDate(-b.MaxAgeYears, 0, 0)) {
		return "too old"
	}
	return ""
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Preview is a short single-line excerpt of text for log attributes.
func Preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
