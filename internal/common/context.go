package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeySource    contextKey = "source"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithSource records where the text being processed came from (a file path
// in batch runs).
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ContextKeySource, source)
}

// SourceFromContext extracts the source from context
func SourceFromContext(ctx context.Context) string {
	if source, ok := ctx.Value(ContextKeySource).(string); ok {
		return source
	}
	return ""
}
