package auth

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/dukerupert/todochat/internal/model"
)

const UnknownOrigin = "unknown"

// UserLookup resolves a user by id; (nil, nil) means no such user.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Builder turns an inbound request or subscription handshake into a Caller.
// It never fails: anything short of a valid credential for an existing user
// yields an anonymous caller.
type Builder struct {
	codec  *TokenCodec
	users  UserLookup
	logger *slog.Logger
}

func NewBuilder(codec *TokenCodec, users UserLookup, logger *slog.Logger) *Builder {
	return &Builder{codec: codec, users: users, logger: logger}
}

// FromRequest builds the caller for an HTTP GraphQL request.
func (b *Builder) FromRequest(r *http.Request) Caller {
	c := Caller{
		Origin:    RequestOrigin(r),
		UserAgent: r.UserAgent(),
		Request:   r,
	}
	b.resolve(r.Context(), &c, BearerToken(r.Header.Get("Authorization")))
	return c
}

// FromConnectionParams builds the caller for a subscription connection. The
// credential comes from the connection_init payload instead of a header.
func (b *Builder) FromConnectionParams(ctx context.Context, r *http.Request, params map[string]any) Caller {
	c := Caller{Origin: UnknownOrigin, UserAgent: UnknownOrigin, Request: r}
	if r != nil {
		if host := remoteHost(r.RemoteAddr); host != "" {
			c.Origin = host
		}
		if ua := r.UserAgent(); ua != "" {
			c.UserAgent = ua
		}
	}
	b.resolve(ctx, &c, tokenFromParams(params))
	return c
}

// Middleware attaches the caller to the request context.
func (b *Builder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), b.FromRequest(r))))
	})
}

func (b *Builder) resolve(ctx context.Context, c *Caller, token string) {
	if token == "" {
		return
	}
	claims, err := b.codec.Verify(token)
	if err != nil || claims.UserID == 0 {
		return
	}
	u, err := b.users.GetByID(ctx, claims.UserID)
	if err != nil {
		b.logger.Warn("resolve caller", "user_id", claims.UserID, "error", err)
		return
	}
	if u == nil {
		return
	}
	c.User = u
	c.UserID = u.ID
}

// BearerToken strips the "Bearer " prefix from an Authorization value.
func BearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func tokenFromParams(params map[string]any) string {
	if v, ok := params["authToken"].(string); ok && v != "" {
		return BearerToken(v)
	}
	for _, key := range []string{"Authorization", "authorization"} {
		if v, ok := params[key].(string); ok && v != "" {
			return BearerToken(v)
		}
	}
	return ""
}

// RequestOrigin is the proxy-forwarded client address, else the connection
// address, else "unknown". The forwarded header is used verbatim.
func RequestOrigin(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		return xff
	}
	if host := remoteHost(r.RemoteAddr); host != "" {
		return host
	}
	return UnknownOrigin
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
