package parser

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-facts/constants"
)

// ExcerptLen is the number of characters of normalized text kept on a Result.
const ExcerptLen = 500

// Result is the outcome of one heuristic parse. Zero values mean "absent":
// an empty Date, an invalid Amount, an empty BankCode.
type Result struct {
	Date       string
	Amount     decimal.NullDecimal
	Currency   string
	BankCode   constants.BankCode
	Confidence float64
	RawExcerpt string

	// DateCandidates is the number of distinct valid dates seen before filtering.
	DateCandidates int
	// AmountByKeyword is set when the amount came from a keyword match.
	AmountByKeyword bool
}

func (r Result) HasDate() bool   { return r.Date != "" }
func (r Result) HasAmount() bool { return r.Amount.Valid }
func (r Result) HasBank() bool   { return r.BankCode != "" }

// Map renders the external shape. Absent fields are left out entirely; "sum"
// mirrors "amount" for older consumers.
func (r Result) Map() map[string]any {
	m := map[string]any{
		"currency":           r.Currency,
		"parsing_confidence": r.Confidence,
		"raw_text":           r.RawExcerpt,
	}
	if r.HasDate() {
		m["date"] = r.Date
	}
	if r.HasAmount() {
		v := r.Amount.Decimal.InexactFloat64()
		m["amount"] = v
		m["sum"] = v
	}
	if r.HasBank() {
		m["bank_code"] = string(r.BankCode)
	}
	return m
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}
