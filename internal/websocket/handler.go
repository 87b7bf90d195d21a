package websocket

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/graph"
)

const (
	defaultInitTimeout  = 10 * time.Second
	defaultPingInterval = 30 * time.Second
	readLimit           = 1 << 20
)

// Server accepts GraphQL subscription connections.
type Server struct {
	exec           *graph.Executor
	builder        *auth.Builder
	hub            *Hub
	logger         *slog.Logger
	originPatterns []string
	initTimeout    time.Duration
	pingInterval   time.Duration
}

type Option func(*Server)

// WithOriginPatterns restricts the Origin header of upgrade requests. With
// no patterns, or a "*" pattern, any origin is accepted.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = patterns }
}

// WithInitTimeout bounds the wait for connection_init.
func WithInitTimeout(d time.Duration) Option {
	return func(s *Server) { s.initTimeout = d }
}

func WithPingInterval(d time.Duration) Option {
	return func(s *Server) { s.pingInterval = d }
}

func NewServer(exec *graph.Executor, builder *auth.Builder, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		exec:         exec,
		builder:      builder,
		hub:          NewHub(logger),
		logger:       logger,
		initTimeout:  defaultInitTimeout,
		pingInterval: defaultPingInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hub returns the registry of open connections.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Shutdown closes every open connection.
func (s *Server) Shutdown() {
	s.hub.CloseAll()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := &ws.AcceptOptions{Subprotocols: []string{Subprotocol}}
	if s.anyOrigin() {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = s.originPatterns
	}

	conn, err := ws.Accept(w, r, opts)
	if err != nil {
		s.logger.Warn("websocket accept", "error", err, "remote", auth.RequestOrigin(r))
		return
	}
	if conn.Subprotocol() != Subprotocol {
		conn.Close(ws.StatusPolicyViolation, "client must speak "+Subprotocol)
		return
	}
	conn.SetReadLimit(readLimit)

	newClient(s, conn, r).Run(r.Context())
}

func (s *Server) anyOrigin() bool {
	if len(s.originPatterns) == 0 {
		return true
	}
	for _, p := range s.originPatterns {
		if p == "*" {
			return true
		}
	}
	return false
}

// IsUpgrade reports whether r asks to switch to the WebSocket protocol.
func IsUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}
