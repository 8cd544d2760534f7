package auth

import "context"

// SystemActor is recorded when no authenticated actor is available
const SystemActor = "system"

type actorKey struct{}

// WithActor returns a context carrying the authenticated actor id
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorKey{}, actorID)
}

// ActorFromContext returns the actor id stored by the request layer, or SystemActor
func ActorFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(actorKey{}).(string); ok && id != "" {
		return id
	}
	return SystemActor
}
