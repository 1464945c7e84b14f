package internal

import (
	"context"
	"time"
)

type userIDKey struct{}

// UserIDFromContext returns the acting user's id, or "" for system calls such
// as the seeder or the event CLI.
func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

// ActorFromContext is UserIDFromContext for nullable actor columns.
func ActorFromContext(ctx context.Context) *string {
	id := UserIDFromContext(ctx)
	if id == "" {
		return nil
	}
	return &id
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// Clock returns the current time; services take one so tests can pin "now".
type Clock func() time.Time

func SystemClock() time.Time { return time.Now() }
