package llm

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-facts/constants"
)

const (
	// ValidConfidence is the self-reported confidence an AI result needs
	// before callers may trust it.
	ValidConfidence = 0.85

	// MinInputRunes is the shortest trimmed text worth sending to the model.
	MinInputRunes = 50
)

// Hints carry what the caller already knows about the receipt. They are
// logged and handed to prompt templates; the default templates ignore them.
type Hints struct {
	BankHint    constants.BankCode  `json:"bank_hint,omitempty"`
	KnownAmount decimal.NullDecimal `json:"known_amount"`
	KnownDate   string              `json:"known_date,omitempty"`
}

// Result is the normalized answer of the AI extractor.
type Result struct {
	Amount     decimal.NullDecimal
	Date       string // YYYY-MM-DD, empty when absent
	Currency   string
	Confidence float64
	Source     constants.Source
}

// Empty is the result returned whenever extraction did not happen or failed.
func Empty() Result {
	return Result{
		Currency: constants.DefaultCurrency,
		Source:   constants.SourceAI,
	}
}

func (r Result) HasAmount() bool { return r.Amount.Valid }
func (r Result) HasDate() bool   { return r.Date != "" }

// IsValid reports whether the result is confident enough and carries at least
// one fact.
func (r Result) IsValid() bool {
	return r.Confidence >= ValidConfidence && (r.HasAmount() || r.HasDate())
}

// Map renders the external shape. Unlike the heuristic mapping, absent values
// are present as nil.
func (r Result) Map() map[string]any {
	var amount any
	if r.HasAmount() {
		amount = r.Amount.Decimal.InexactFloat64()
	}
	var date any
	if r.HasDate() {
		date = r.Date
	}
	return map[string]any{
		"amount":             amount,
		"sum":                amount,
		"date":               date,
		"currency":           r.Currency,
		"parsing_confidence": r.Confidence,
		"source":             string(r.Source),
	}
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// FieldExtractor is the interface the extraction service depends on.
// Extract never fails; every failure collapses into Empty().
type FieldExtractor interface {
	IsConfigured() bool
	Extract(ctx context.Context, raw string, hints Hints) Result
}
