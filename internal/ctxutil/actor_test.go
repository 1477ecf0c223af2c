package ctxutil

import (
	"context"
	"testing"
)

func TestActorFromContext(t *testing.T) {
	ctx := context.Background()
	if got := ActorFromContext(ctx); got != "" {
		t.Errorf("ActorFromContext() = %q, want empty", got)
	}
	if got := ActorOrDefault(ctx); got != DefaultActor {
		t.Errorf("ActorOrDefault() = %q, want %q", got, DefaultActor)
	}

	ctx = WithActorID(ctx, "dana")
	if got := ActorFromContext(ctx); got != "dana" {
		t.Errorf("ActorFromContext() = %q, want dana", got)
	}
	if got := ActorOrDefault(ctx); got != "dana" {
		t.Errorf("ActorOrDefault() = %q, want dana", got)
	}
}
