package graph

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/email"
	"github.com/dukerupert/todochat/internal/middleware"
	"github.com/dukerupert/todochat/internal/model"
	"github.com/dukerupert/todochat/internal/pubsub"
	"github.com/dukerupert/todochat/internal/store"
)

const (
	VerificationTTL = 30 * time.Minute

	AdminMaxAttempts   = 5
	AdminBlockDuration = 30 * time.Minute
	CodeMaxAttempts    = 3
	CodeBlockDuration  = time.Hour
)

// Config holds the process-wide admin literals.
type Config struct {
	AdminLogin        string
	AdminPassword     string
	AdminSecurityCode string
}

// Resolver is the root of the GraphQL schema.
type Resolver struct {
	users *store.UserStore
	todos *store.TodoStore
	chat  *store.ChatStore
	stats *store.StatsStore

	codec  *auth.TokenCodec
	broker *pubsub.Broker
	mailer email.Sender

	adminGate   *Gate
	codeLimiter *middleware.AttemptLimiter

	cfg        Config
	logger     *slog.Logger
	now        func() time.Time
	bcryptCost int
}

type Option func(*Resolver)

// WithClock replaces time.Now for verification expiry and both limiters.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func WithBcryptCost(cost int) Option {
	return func(r *Resolver) {
		r.bcryptCost = cost
	}
}

func NewResolver(db *sql.DB, codec *auth.TokenCodec, broker *pubsub.Broker, mailer email.Sender, cfg Config, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		users:      store.NewUserStore(db),
		todos:      store.NewTodoStore(db),
		chat:       store.NewChatStore(db),
		stats:      store.NewStatsStore(db),
		codec:      codec,
		broker:     broker,
		mailer:     mailer,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.adminGate = NewGate(
		middleware.NewAttemptLimiter(AdminMaxAttempts, AdminBlockDuration, middleware.WithClock(r.now)),
		logger.With("component", "admin_gate"),
	)
	r.codeLimiter = middleware.NewAttemptLimiter(CodeMaxAttempts, CodeBlockDuration, middleware.WithClock(r.now))
	return r
}

// Limiters returns the attempt limiters so the caller can sweep them.
func (r *Resolver) Limiters() []*middleware.AttemptLimiter {
	return []*middleware.AttemptLimiter{r.adminGate.limiter, r.codeLimiter}
}

// requireUser returns the authenticated caller or an UNAUTHENTICATED error.
func requireUser(ctx context.Context) (*model.User, error) {
	c, ok := auth.FromContext(ctx)
	if !ok || c.User == nil {
		return nil, errAuthRequired
	}
	return c.User, nil
}
