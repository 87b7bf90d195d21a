package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/config"
	"github.com/dukerupert/todochat/internal/email"
	"github.com/dukerupert/todochat/internal/graph"
	"github.com/dukerupert/todochat/internal/handler"
	"github.com/dukerupert/todochat/internal/middleware"
	"github.com/dukerupert/todochat/internal/pubsub"
	"github.com/dukerupert/todochat/internal/store"
	ws "github.com/dukerupert/todochat/internal/websocket"
)

type Server struct {
	db          *sql.DB
	resolver    *graph.Resolver
	builder     *auth.Builder
	graphqlH    *handler.GraphQLHandler
	subs        *ws.Server
	corsOrigins string
	logger      *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	codec := auth.NewTokenCodec(cfg.JWTSecret)
	broker := pubsub.NewBroker(logger.With("component", "pubsub"))
	mailer := NewMailer(cfg, logger)

	resolver := graph.NewResolver(db, codec, broker, mailer, cfg.Graph(), logger.With("component", "graph"))
	exec, err := graph.NewExecutor(resolver, cfg.Production(), logger.With("component", "graphql"))
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	builder := auth.NewBuilder(codec, store.NewUserStore(db), logger.With("component", "auth"))
	subs := ws.NewServer(exec, builder, logger.With("component", "websocket"),
		ws.WithOriginPatterns(originPatterns(cfg.CORSOrigins)...),
	)

	return &Server{
		db:          db,
		resolver:    resolver,
		builder:     builder,
		graphqlH:    handler.NewGraphQLHandler(exec, logger.With("component", "graphql_http")),
		subs:        subs,
		corsOrigins: cfg.CORSOrigins,
		logger:      logger,
	}, nil
}

// NewMailer picks the outbound transport: SMTP when configured, else
// Postmark when a token is set, else the log transport. Every transport is
// wrapped with bounded retry.
func NewMailer(cfg *config.Config, logger *slog.Logger) email.Sender {
	mailLogger := logger.With("component", "email")

	var sender email.Sender
	switch {
	case cfg.SMTP.Configured():
		mailLogger.Info("email transport", "kind", "smtp", "host", cfg.SMTP.Host, "port", cfg.SMTP.Port)
		sender = email.NewSMTPSender(cfg.SMTP)
	case cfg.PostmarkToken != "":
		mailLogger.Info("email transport", "kind", "postmark")
		from := cfg.SMTP.From
		if from == "" {
			from = email.DefaultFromAddr
		}
		sender = email.NewPostmarkSender(cfg.PostmarkToken, from)
	default:
		mailLogger.Warn("no email transport configured, verification codes will only be logged")
		sender = email.NewLogSender(mailLogger)
	}
	return email.NewRetryingSender(sender, email.DefaultAttempts, email.DefaultRetryDelay, mailLogger)
}

// Limiters returns the in-memory attempt limiters for cleanup tasks.
func (s *Server) Limiters() []*middleware.AttemptLimiter {
	return s.resolver.Limiters()
}

// Shutdown closes open subscription connections, which http.Server.Shutdown
// does not track once they are upgraded.
func (s *Server) Shutdown() {
	s.subs.Shutdown()
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.Health)
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		if ws.IsUpgrade(r) {
			s.subs.ServeHTTP(w, r)
			return
		}
		s.graphqlH.ServeHTTP(w, r)
	})

	var h http.Handler = mux
	h = s.builder.Middleware(h)
	h = middleware.CORS(s.corsOrigins)(h)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	return middleware.RequestID(h)
}

// originPatterns turns the CORS origin list into host patterns for the
// WebSocket origin check.
func originPatterns(origins string) []string {
	var patterns []string
	for _, o := range strings.Split(origins, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "" {
			continue
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			o = u.Host
		}
		patterns = append(patterns, o)
	}
	return patterns
}
