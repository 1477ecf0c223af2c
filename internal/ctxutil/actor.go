// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// ActorKey is the context key for the acting supervisor.
type ActorKey struct{}

// DefaultActor is used when no supervisor is set on the context.
const DefaultActor = "supervisor"

// WithActorID returns a context carrying the acting supervisor's id.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, ActorKey{}, actorID)
}

// ActorFromContext returns the supervisor id from context, or empty string if not set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ActorKey{}).(string); ok {
		return v
	}
	return ""
}

// ActorOrDefault returns the supervisor id from context, falling back to DefaultActor.
func ActorOrDefault(ctx context.Context) string {
	if actor := ActorFromContext(ctx); actor != "" {
		return actor
	}
	return DefaultActor
}
