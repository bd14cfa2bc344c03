// Package shared provides helpers used across API handlers: request
// context values and JSON response writing.
package shared

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// ContextKey is the key type for request context values.
type ContextKey string

// Context keys for various values
const (
	// ActorIDContextKey is the context key for the acting user's ID.
	ActorIDContextKey ContextKey = "actorID"

	// TraceIDKey is the key for the trace ID in the request context.
	TraceIDKey ContextKey = "traceID"

	// traceIDLength is the number of random bytes in a trace ID.
	traceIDLength = 16
)

// SetTraceID adds a fresh trace ID to the context.
func SetTraceID(ctx context.Context) context.Context {
	return context.WithValue(ctx, TraceIDKey, generateTraceID())
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

// generateTraceID creates a random 32-character hex trace ID.
func generateTraceID() string {
	b := make([]byte, traceIDLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; a UUID keeps
		// request correlation working regardless.
		return uuid.NewString()
	}
	return hex.EncodeToString(b)
}

// SetActorID stores the acting user's ID in the context.
func SetActorID(ctx context.Context, actorID uuid.UUID) context.Context {
	return context.WithValue(ctx, ActorIDContextKey, actorID)
}

// GetActorID retrieves the acting user's ID from the context.
func GetActorID(ctx context.Context) (uuid.UUID, bool) {
	actorID, ok := ctx.Value(ActorIDContextKey).(uuid.UUID)
	return actorID, ok
}
