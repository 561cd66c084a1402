package recommend

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// WithRequestID makes Recommend and Explain log under id instead of a
// freshly generated one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id stored by WithRequestID or a new uuid.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
