package common

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

var currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []ValidationError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]ValidationError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *ValidationError

// Required - Common validation rules
func Required(fieldName string, value interface{}) *ValidationError {
	if value == nil {
		return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
	}

	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	case *string:
		if v == nil || strings.TrimSpace(*v) == "" {
			return &ValidationError{Field: fieldName, Value: value, Message: "is required"}
		}
	}
	return nil
}

// Positive accepts ints, floats and durations greater than zero.
func Positive(fieldName string, value interface{}) *ValidationError {
	var ok bool
	switch v := value.(type) {
	case int:
		ok = v > 0
	case int32:
		ok = v > 0
	case float32:
		ok = v > 0
	case float64:
		ok = v > 0
	case time.Duration:
		ok = v > 0
	default:
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a number"}
	}
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be greater than zero"}
	}
	return nil
}

func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *ValidationError {
		str, _ := value.(string)
		for _, a := range allowed {
			if strings.EqualFold(str, a) {
				return nil
			}
		}
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: fmt.Sprintf("must be one of %s", strings.Join(allowed, ", ")),
		}
	}
}

// URL requires an absolute http(s) URL.
func URL(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}
	u, err := url.Parse(str)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be an absolute http(s) URL"}
	}
	return nil
}

func CurrencyCode(fieldName string, value interface{}) *ValidationError {
	str, ok := value.(string)
	if !ok {
		return &ValidationError{Field: fieldName, Value: value, Message: "must be a string"}
	}

	// ISO 4217 currency codes are 3 uppercase letters
	if !currencyRegex.MatchString(str) {
		return &ValidationError{
			Field:   fieldName,
			Value:   value,
			Message: "must be 3 uppercase letters (ISO 4217)",
		}
	}
	return nil
}
