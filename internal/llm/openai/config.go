package openai

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/receipt-facts/internal/common"
	"github.com/joseph-ayodele/receipt-facts/internal/llm"
)

// Config for the OpenAI-compatible client.
type Config struct {
	APIKey        string
	BaseURL       string        // e.g. https://api.openai.com/v1; /chat/completions is appended
	Model         string        // e.g., "gpt-4o-mini"
	Temperature   float32       // 0..2
	MaxTokens     int           // completion budget
	Timeout       time.Duration // http client timeout
	MaxInputRunes int           // OCR text sent to the model is cut to this length
	Bounds        llm.Bounds
	Prompt        llm.Prompt
}

// DefaultConfig returns a config with every tunable at its default; the
// endpoint and key stay empty.
func DefaultConfig() Config {
	return Config{
		Model:         "gpt-4o-mini",
		Temperature:   0.1,
		MaxTokens:     300,
		Timeout:       15 * time.Second,
		MaxInputRunes: 4000,
		Bounds:        llm.DefaultBounds(),
		Prompt:        llm.DefaultPrompt(),
	}
}

// ConfigFromEnv maps the application config onto the client config and
// loads the prompt file when one is set.
func ConfigFromEnv(c common.AIConfig) (Config, error) {
	cfg := DefaultConfig()
	cfg.APIKey = c.APIKey
	cfg.BaseURL = c.APIURL
	if c.Model != "" {
		cfg.Model = c.Model
	}
	if c.Temperature > 0 {
		cfg.Temperature = c.Temperature
	}
	if c.MaxTokens > 0 {
		cfg.MaxTokens = c.MaxTokens
	}
	if c.Timeout > 0 {
		cfg.Timeout = c.Timeout
	}
	if c.MaxInputRunes > 0 {
		cfg.MaxInputRunes = c.MaxInputRunes
	}
	cfg.Bounds = llm.Bounds{
		AmountFloor:   decimal.NewFromFloat(c.AmountFloor),
		AmountCeiling: decimal.NewFromFloat(c.AmountCeiling),
		MaxAgeYears:   c.MaxAgeYears,
	}
	if c.PromptFile != "" {
		p, err := llm.LoadPrompt(c.PromptFile)
		if err != nil {
			return Config{}, common.NewAppError("CONFIG_ERROR", "RECEIPT_AI_PROMPT_FILE", err)
		}
		cfg.Prompt = p
	}
	return cfg, nil
}
