// Package logging provides request ID tracing for debugging concurrent requests.
package logging

import (
	"context"

	"github.com/oklog/ulid/v2"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader is the HTTP header carrying an inbound request ID.
const RequestIDHeader = "X-Request-ID"

// NewRequestID generates a unique, time-sortable request ID.
func NewRequestID() string {
	return ulid.Make().String()
}

// WithRequestID adds a request ID to context.
// If id is empty, generates a new one.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRequestID()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID extracts request ID from context.
// Returns empty string if not present.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}
