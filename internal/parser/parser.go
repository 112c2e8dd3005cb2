package parser

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-facts/constants"
	"github.com/joseph-ayodele/receipt-facts/internal/core/ocr"
)

// DefaultMaxInput bounds the characters a single parse looks at.
const DefaultMaxInput = 20000

// Parser extracts payment facts from OCR text with fixed pattern tables.
// It holds no per-call state and is safe for concurrent use.
type Parser struct {
	logger   *slog.Logger
	now      func() time.Time
	maxInput int
}

type Option func(*Parser)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock sets the clock used for the upper year bound.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		if now != nil {
			p.now = now
		}
	}
}

func WithMaxInput(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxInput = n
		}
	}
}

func New(opts ...Option) *Parser {
	p := &Parser{
		now:      time.Now,
		maxInput: DefaultMaxInput,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Parse runs the heuristic extraction on raw OCR text. It never fails: missing
// facts are simply absent from the Result.
func (p *Parser) Parse(raw string) Result {
	now := p.now()
	numText := ocr.NormalizeNumbers(truncateRunes(raw, p.maxInput))
	t := newText(numText)

	res := Result{
		Currency:   constants.DefaultCurrency,
		RawExcerpt: truncateRunes(numText, ExcerptLen),
	}

	dates := collectDates(t, now)
	res.DateCandidates = len(dates)
	if best, ok := pickDate(dates); ok {
		res.Date = best.String()
	} else if len(dates) == 0 {
		if d, ok := namedDate(t, now); ok {
			res.Date = d
		}
	}

	if best, ok := pickAmount(collectAmounts(numText)); ok {
		res.Amount = decimal.NewNullDecimal(best.Value)
		res.AmountByKeyword = best.Keyword != ""
	}

	if bank, ok := detectBank(ocr.Fold(numText)); ok {
		res.BankCode = bank
	}

	res.Confidence = score(signals{
		hasDate:         res.HasDate(),
		hasAmount:       res.HasAmount(),
		amountByKeyword: res.AmountByKeyword,
		dateCandidates:  res.DateCandidates,
	})

	p.log().Debug("parser.parse.done",
		"text_len", t.runeLen(),
		"date", res.Date,
		"date_candidates", res.DateCandidates,
		"has_amount", res.HasAmount(),
		"bank", string(res.BankCode),
		"confidence", res.Confidence,
	)
	return res
}

func (p *Parser) log() *slog.Logger {
	if p.logger == nil {
		return slog.Default()
	}
	return p.logger
}

var defaultParser = New()

// Parse runs the default Parser.
func Parse(raw string) Result {
	return defaultParser.Parse(raw)
}
