package auth

import (
	"context"
	"net/http"

	"github.com/dukerupert/todochat/internal/model"
)

type contextKey struct{}

// Caller is the per-request identity handed to every resolver. A zero
// UserID means the caller is anonymous.
type Caller struct {
	User      *model.User
	UserID    int64
	Origin    string
	UserAgent string
	Request   *http.Request
}

func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

func FromContext(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(contextKey{}).(Caller)
	return c, ok
}

func UserID(ctx context.Context) int64 {
	c, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return c.UserID
}

// Origin returns the caller's network origin, "unknown" when absent.
func Origin(ctx context.Context) string {
	c, ok := FromContext(ctx)
	if !ok || c.Origin == "" {
		return UnknownOrigin
	}
	return c.Origin
}

func IsAdmin(ctx context.Context) bool {
	c, ok := FromContext(ctx)
	if !ok || c.User == nil {
		return false
	}
	return c.User.IsAdmin
}
