package receipts

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
	"github.com/joseph-ayodele/receipt-facts/internal/llm"
	"github.com/joseph-ayodele/receipt-facts/internal/parser"
)

// Service is the entry point callers use: heuristics first, the AI extractor
// on request or below a caller-chosen confidence.
type Service struct {
	parser *parser.Parser
	ai     llm.FieldExtractor
	logger *slog.Logger
}

// NewService wires a parser and an optional AI extractor (nil disables it).
func NewService(p *parser.Parser, ai llm.FieldExtractor, logger *slog.Logger) *Service {
	if p == nil {
		p = parser.New(parser.WithLogger(logger))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{parser: p, ai: ai, logger: logger}
}

// Document is one piece of OCR text to process.
type Document struct {
	ID   string
	Text string
}

// Outcome is what Process produced for a Document.
type Outcome struct {
	ID        string
	Heuristic parser.Result
	AI        *llm.Result
	Escalated bool
}

func (o Outcome) Map() map[string]any {
	m := map[string]any{
		"id":        o.ID,
		"heuristic": o.Heuristic.Map(),
		"escalated": o.Escalated,
	}
	if o.AI != nil {
		m["ai"] = o.AI.Map()
	}
	return m
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Map())
}

// AIConfigured reports whether Fallback can reach a model.
func (s *Service) AIConfigured() bool {
	return s.ai != nil && s.ai.IsConfigured()
}

// Parse runs the heuristic parser only.
func (s *Service) Parse(text string) parser.Result {
	return s.parser.Parse(text)
}

// Fallback runs the AI extractor. The only error is an unconfigured extractor;
// extraction failures come back as an empty result.
func (s *Service) Fallback(ctx context.Context, text string, hints llm.Hints) (llm.Result, error) {
	if !s.AIConfigured() {
		return llm.Empty(), common.NewAppError("AI_UNAVAILABLE", "AI extractor is not configured", common.ErrNotConfigured)
	}
	return s.ai.Extract(ctx, text, hints), nil
}

// Process parses doc and asks the AI extractor as well when the heuristic
// confidence is below escalateBelow. A threshold of zero never escalates.
func (s *Service) Process(ctx context.Context, doc Document, escalateBelow float64) Outcome {
	out := Outcome{ID: doc.ID, Heuristic: s.parser.Parse(doc.Text)}
	if out.Heuristic.Confidence >= escalateBelow || escalateBelow <= 0 {
		return out
	}
	if !s.AIConfigured() {
		s.logger.Debug("receipts.escalation.skipped",
			"id", doc.ID, "req_id", common.RequestIDFromContext(ctx), "reason", "ai not configured")
		return out
	}

	ai := s.ai.Extract(ctx, doc.Text, HintsFrom(out.Heuristic))
	out.AI = &ai
	out.Escalated = true
	s.logger.Info("receipts.escalated",
		"id", doc.ID,
		"req_id", common.RequestIDFromContext(ctx),
		"heuristic_confidence", out.Heuristic.Confidence,
		"ai_confidence", ai.Confidence,
		"ai_valid", ai.IsValid(),
	)
	return out
}

// HintsFrom turns what the heuristics found into hints for the AI extractor.
func HintsFrom(r parser.Result) llm.Hints {
	h := llm.Hints{BankHint: r.BankCode, KnownAmount: r.Amount}
	if r.HasDate() {
		h.KnownDate, _, _ = strings.Cut(r.Date, " ")
	}
	return h
}
