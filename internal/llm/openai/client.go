package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
	"github.com/joseph-ayodele/receipt-facts/internal/llm"
)

const previewRunes = 120

// Client implements llm.FieldExtractor on top of an OpenAI-compatible
// chat-completion endpoint. It makes exactly one request per Extract call.
type Client struct {
	cfg Config
	api *goopenai.Client
	log *slog.Logger
	now func() time.Time
}

type Option func(*Client)

// WithClock sets the clock used for date plausibility checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClient(cfg Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	c := &Client{
		cfg: cfg,
		api: goopenai.NewClientWithConfig(apiCfg),
		log: logger,
		now: time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// IsConfigured reports whether both endpoint and key are set.
func (c *Client) IsConfigured() bool {
	return c.cfg.BaseURL != "" && c.cfg.APIKey != ""
}

// Extract asks the model for the payment facts in raw. Any failure is logged
// and reported as llm.Empty().
func (c *Client) Extract(ctx context.Context, raw string, hints llm.Hints) llm.Result {
	rid := common.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.New().String()
		ctx = common.WithRequestID(ctx, rid)
	}
	start := time.Now()

	res, err := c.extract(ctx, raw, hints)
	if err != nil {
		attrs := []any{
			"req_id", rid,
			"error", err,
			"preview", llm.Preview(raw, previewRunes),
			"elapsed_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case errors.Is(err, common.ErrInputTooShort):
			c.log.Debug("llm.extract.skipped", attrs...)
		case errors.Is(err, common.ErrNotConfigured):
			c.log.Warn("llm.extract.not_configured", attrs...)
		case errors.Is(err, common.ErrExternalService):
			c.log.Error("llm.extract.http_error", attrs...)
		default:
			c.log.Error("llm.extract.invalid_response", attrs...)
		}
		return llm.Empty()
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"amount", res.Amount.Decimal.String(),
		"has_amount", res.HasAmount(),
		"date", res.Date,
		"currency", res.Currency,
		"confidence", res.Confidence,
		"valid", res.IsValid(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func (c *Client) extract(ctx context.Context, raw string, hints llm.Hints) (llm.Result, error) {
	text := strings.TrimSpace(raw)
	if c.cfg.MaxInputRunes > 0 && utf8.RuneCountInString(text) > c.cfg.MaxInputRunes {
		text = string([]rune(text)[:c.cfg.MaxInputRunes])
	}
	if n := utf8.RuneCountInString(text); n < llm.MinInputRunes {
		return llm.Result{}, fmt.Errorf("%w: %d runes", common.ErrInputTooShort, n)
	}
	if !c.IsConfigured() {
		return llm.Result{}, common.ErrNotConfigured
	}

	rid := common.RequestIDFromContext(ctx)
	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", utf8.RuneCountInString(text),
		"bank_hint", string(hints.BankHint),
		"known_amount", hints.KnownAmount.Decimal.String(),
		"known_date", hints.KnownDate,
	)

	sys, user, err := c.cfg.Prompt.Render(llm.PromptData{Text: text, Hints: hints})
	if err != nil {
		return llm.Result{}, err
	}

	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: sys},
			{Role: goopenai.ChatMessageRoleUser, Content: user},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return llm.Result{}, fmt.Errorf("%w: %v", common.ErrExternalService, err)
	}
	if len(resp.Choices) == 0 {
		return llm.Result{}, fmt.Errorf("%w: no choices", common.ErrExternalService)
	}

	doc, err := llm.DecodeResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return llm.Result{}, err
	}

	res, rejected := llm.FieldsFromResponse(doc, c.cfg.Bounds, c.now())
	for _, r := range rejected {
		c.log.Warn("llm.extract.field_rejected",
			"req_id", rid, "field", r.Field, "value", r.Value, "reason", r.Reason)
	}
	return res, nil
}
