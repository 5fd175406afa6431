package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// NewRequestID returns a fresh request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// ContextWithRequestID stores id on ctx so Ctx can attach it to log lines.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stored on ctx or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger enriched with the request ID found on ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if ctx != nil {
		if id := RequestIDFromContext(ctx); id != "" {
			l = l.With().Str("request_id", id).Logger()
		}
	}
	return &l
}
