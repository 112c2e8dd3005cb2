package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	AI     AIConfig
	Parser ParserConfig
	Batch  BatchConfig
	Log    LogConfig
}

// AIConfig holds the fallback extractor settings
type AIConfig struct {
	APIURL        string
	APIKey        string
	Model         string
	MaxTokens     int
	Timeout       time.Duration
	Temperature   float32
	MaxInputRunes int
	AmountFloor   float64
	AmountCeiling float64
	MaxAgeYears   int
	PromptFile    string
}

// ParserConfig holds heuristic parser settings
type ParserConfig struct {
	MaxInputRunes int
}

// BatchConfig holds settings for directory runs
type BatchConfig struct {
	Workers int
}

type LogConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		AI: AIConfig{
			APIURL:        getEnv("RECEIPT_AI_API_URL", ""),
			APIKey:        getEnv("RECEIPT_AI_API_KEY", ""),
			Model:         getEnv("RECEIPT_AI_MODEL", "gpt-4o-mini"),
			MaxTokens:     getEnvAsInt("RECEIPT_AI_MAX_TOKENS", 300),
			Timeout:       getEnvAsDuration("RECEIPT_AI_TIMEOUT", 15*time.Second),
			Temperature:   getEnvAsFloat32("RECEIPT_AI_TEMPERATURE", 0.1),
			MaxInputRunes: getEnvAsInt("RECEIPT_AI_MAX_INPUT", 4000),
			AmountFloor:   getEnvAsFloat64("RECEIPT_AI_AMOUNT_FLOOR", 0),
			AmountCeiling: getEnvAsFloat64("RECEIPT_AI_AMOUNT_CEILING", 10_000_000),
			MaxAgeYears:   getEnvAsInt("RECEIPT_AI_MAX_AGE_YEARS", 2),
			PromptFile:    getEnv("RECEIPT_AI_PROMPT_FILE", ""),
		},
		Parser: ParserConfig{
			MaxInputRunes: getEnvAsInt("PARSER_MAX_INPUT", 20000),
		},
		Batch: BatchConfig{
			Workers: getEnvAsInt("BATCH_WORKERS", 4),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

// AIConfigured reports whether the fallback extractor can be reached.
func (c *Config) AIConfigured() bool {
	return c.AI.APIURL != "" && c.AI.APIKey != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. The AI endpoint is optional, but
// a key without an endpoint (or the reverse) is a mistake worth reporting.
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("RECEIPT_AI_MODEL", c.AI.Model, Required)
	v.Field("RECEIPT_AI_MAX_TOKENS", c.AI.MaxTokens, Positive)
	v.Field("RECEIPT_AI_TIMEOUT", c.AI.Timeout, Positive)
	// go-openai omits a zero temperature, which leaves the endpoint default of 1
	v.Field("RECEIPT_AI_TEMPERATURE", c.AI.Temperature, Positive)
	v.Field("RECEIPT_AI_MAX_INPUT", c.AI.MaxInputRunes, Positive)
	v.Field("RECEIPT_AI_MAX_AGE_YEARS", c.AI.MaxAgeYears, Positive)
	v.Field("PARSER_MAX_INPUT", c.Parser.MaxInputRunes, Positive)
	v.Field("BATCH_WORKERS", c.Batch.Workers, Positive)
	v.Field("LOG_LEVEL", c.Log.Level, OneOf("debug", "info", "warn", "error"))
	if c.AI.APIURL != "" {
		v.Field("RECEIPT_AI_API_URL", c.AI.APIURL, URL)
		v.Field("RECEIPT_AI_API_KEY", c.AI.APIKey, Required)
	}
	if c.AI.APIKey != "" {
		v.Field("RECEIPT_AI_API_URL", c.AI.APIURL, Required)
	}
	if c.AI.AmountCeiling <= c.AI.AmountFloor {
		v.Field("RECEIPT_AI_AMOUNT_CEILING", c.AI.AmountCeiling, func(field string, value interface{}) *ValidationError {
			return &ValidationError{Field: field, Value: value, Message: "must be greater than RECEIPT_AI_AMOUNT_FLOOR"}
		})
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
