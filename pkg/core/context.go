package core

import (
	"context"

	"github.com/google/uuid"
)

type runIDKey struct{}
type emitterKey struct{}

// WithRunID attaches a run id to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run id if present.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDKey{}).(string)
	return id, ok
}

// EnsureRunID ensures a run id exists in the context.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := NewRunID()
	return WithRunID(ctx, id), id
}

// NewRunID generates a fresh run identifier.
func NewRunID() string {
	return "run-" + uuid.NewString()
}

// WithEmitter attaches an event emitter to the context.
func WithEmitter(ctx context.Context, emitter EventEmitter) context.Context {
	return context.WithValue(ctx, emitterKey{}, emitter)
}

// EmitterFromContext returns the event emitter if present.
func EmitterFromContext(ctx context.Context) (EventEmitter, bool) {
	emitter, ok := ctx.Value(emitterKey{}).(EventEmitter)
	return emitter, ok
}
