package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
)

var testNow = time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:                  `{"a":1}`,
		"```json\n{\"a\":1}\n```":  `{"a":1}`,
		"```\n{\"a\":1}```":        `{"a":1}`,
		"  ```JSON {\"a\":1} ```  ": `{"a":1}`,
		"no fence at all":          "no fence at all",
	}
	for in, want := range tests {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDecodeResponse_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"sorry, I cannot help",
		`[1, 2, 3]`,
		`"just a string"`,
		`{"amount": true}`,
		`{"date": 20240315}`,
		`{"confidence": {"value": 1}}`,
	} {
		if _, err := DecodeResponse(in); !errors.Is(err, common.ErrMalformedResponse) {
			t.Errorf("DecodeResponse(%q) error = %v, want ErrMalformedResponse", in, err)
		}
	}
}

func TestFieldsFromResponse(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		amount     string // empty means null
		date       string
		currency   string
		confidence float64
		rejected   []string
	}{
		{
			name:       "numbers",
			content:    `{"amount": 12500.456, "date": "2025-03-15", "currency": "rub", "confidence": 0.93}`,
			amount:     "12500.46",
			date:       "2025-03-15",
			currency:   "RUB",
			confidence: 0.93,
		},
		{
			name:       "numeric strings and a timestamp",
			content:    `{"amount": "1 500,50", "date": "2025-03-15T14:30:00", "currency": "USD", "confidence": "0.9"}`,
			amount:     "1500.5",
			date:       "2025-03-15",
			currency:   "USD",
			confidence: 0.9,
		},
		{
			name:       "russian date layout",
			content:    `{"amount": null, "date": "15.03.2025 10:00", "confidence": 0.7}`,
			date:       "2025-03-15",
			currency:   "RUB",
			confidence: 0.7,
		},
		{
			name:       "sum used when amount missing",
			content:    `{"sum": 300, "confidence": 0.5}`,
			amount:     "300",
			currency:   "RUB",
			confidence: 0.5,
		},
		{
			name:       "above ceiling nulls only the amount",
			content:    `{"amount": 20000000, "date": "2025-05-01", "confidence": 0.95}`,
			date:       "2025-05-01",
			currency:   "RUB",
			confidence: 0.95,
			rejected:   []string{"amount"},
		},
		{
			name:       "zero amount rejected",
			content:    `{"amount": 0, "confidence": 0.95}`,
			currency:   "RUB",
			confidence: 0.95,
			rejected:   []string{"amount"},
		},
		{
			name:       "future date nulls only the date",
			content:    `{"amount": 100, "date": "2025-06-02", "confidence": 0.9}`,
			amount:     "100",
			currency:   "RUB",
			confidence: 0.9,
			rejected:   []string{"date"},
		},
		{
			name:       "too old date",
			content:    `{"amount": 100, "date": "2023-05-31", "confidence": 0.9}`,
			amount:     "100",
			currency:   "RUB",
			confidence: 0.9,
			rejected:   []string{"date"},
		},
		{
			name:       "garbage date",
			content:    `{"date": "вчера", "confidence": 0.9}`,
			currency:   "RUB",
			confidence: 0.9,
			rejected:   []string{"date"},
		},
		{
			name:     "confidence clamped high",
			content:  `{"amount": 10, "confidence": 7}`,
			amount:   "10",
			currency: "RUB",
			// clamped
			confidence: 1,
		},
		{
			name:       "confidence clamped low and bad currency",
			content:    `{"amount": 10, "currency": "рубли", "confidence": -0.3}`,
			amount:     "10",
			currency:   "RUB",
			confidence: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := DecodeResponse(tc.content)
			if err != nil {
				t.Fatalf("DecodeResponse: %v", err)
			}
			res, rejected := FieldsFromResponse(doc, DefaultBounds(), testNow)

			if tc.amount == "" {
				if res.HasAmount() {
					t.Errorf("Amount = %s, want null", res.Amount.Decimal)
				}
			} else if !res.HasAmount() || !res.Amount.Decimal.Equal(decimal.RequireFromString(tc.amount)) {
				t.Errorf("Amount = %v, want %s", res.Amount, tc.amount)
			}
			if res.Date != tc.date {
				t.Errorf("Date = %q, want %q", res.Date, tc.date)
			}
			if res.Currency != tc.currency {
				t.Errorf("Currency = %q, want %q", res.Currency, tc.currency)
			}
			if res.Confidence != tc.confidence {
				t.Errorf("Confidence = %v, want %v", res.Confidence, tc.confidence)
			}
			var fields []string
			for _, r := range rejected {
				fields = append(fields, r.Field)
			}
			if diff := cmp.Diff(tc.rejected, fields); diff != "" {
				t.Errorf("rejected fields (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("a\n  b\tc", 10); got != "a b c" {
		t.Errorf("Preview() = %q", got)
	}
	if got := Preview("абвгд", 3); got != "абв…" {
		t.Errorf("Preview() = %q", got)
	}
}
