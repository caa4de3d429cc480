package shared

import (
	"context"

	"github.com/google/uuid"
)

// ContextKey is the key type for request-scoped values.
type ContextKey string

const (
	// LearnerIDContextKey holds the authenticated learner's uuid.UUID.
	LearnerIDContextKey ContextKey = "learnerID"

	// TraceIDKey holds the request trace ID.
	TraceIDKey ContextKey = "traceID"

	// TraceIDHeader is echoed on every response and accepted on requests.
	TraceIDHeader = "X-Trace-ID"
)

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, uuid.NewString())
}

// WithTraceID adds the given trace ID to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithLearnerID stores the authenticated learner in the context.
func WithLearnerID(ctx context.Context, learnerID uuid.UUID) context.Context {
	return context.WithValue(ctx, LearnerIDContextKey, learnerID)
}

// GetLearnerID returns the authenticated learner. The boolean is false when
// the context carries no learner or the nil UUID.
func GetLearnerID(ctx context.Context) (uuid.UUID, bool) {
	learnerID, ok := ctx.Value(LearnerIDContextKey).(uuid.UUID)
	if !ok || learnerID == uuid.Nil {
		return uuid.Nil, false
	}
	return learnerID, true
}
