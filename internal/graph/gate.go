package graph

import (
	"context"
	"log/slog"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/middleware"
	"github.com/dukerupert/todochat/internal/model"
)

// Gate guards administrator operations. Every call is counted against the
// caller's origin before identity is checked, so anonymous probing is
// throttled too.
type Gate struct {
	limiter *middleware.AttemptLimiter
	logger  *slog.Logger
}

func NewGate(limiter *middleware.AttemptLimiter, logger *slog.Logger) *Gate {
	return &Gate{limiter: limiter, logger: logger}
}

// Check returns the acting administrator or the error that stops op.
func (g *Gate) Check(ctx context.Context, op string) (*model.User, error) {
	origin := auth.Origin(ctx)
	if !g.limiter.Allow(origin) {
		g.logger.Warn("admin access throttled", "origin", origin, "operation", op)
		return nil, newError(CodeTooManyRequests, "Too many access attempts, please try again later")
	}

	c, ok := auth.FromContext(ctx)
	if !ok || c.User == nil {
		return nil, newError(CodeUnauthenticated, "You must be logged in")
	}
	if !c.User.IsAdmin {
		g.logger.Warn("unauthorized admin access attempt", "user_id", c.User.ID, "email", c.User.Email, "origin", origin, "operation", op)
		return nil, newError(CodeForbidden, "Requires admin access")
	}

	g.logger.Info("admin operation", "user", c.User.Email, "origin", origin, "operation", op)
	return c.User, nil
}

// guarded runs fn only if the gate admits the caller.
func guarded[T any](ctx context.Context, g *Gate, op string, fn func(admin *model.User) (T, error)) (T, error) {
	admin, err := g.Check(ctx, op)
	if err != nil {
		var zero T
		return zero, err
	}
	return fn(admin)
}
