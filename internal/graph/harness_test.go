package graph

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	qerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/todochat/internal/auth"
	"github.com/dukerupert/todochat/internal/database"
	"github.com/dukerupert/todochat/internal/email"
	"github.com/dukerupert/todochat/internal/model"
	"github.com/dukerupert/todochat/internal/pubsub"
	"github.com/dukerupert/todochat/internal/store"
)

const testSecret = "test-signing-secret"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// captureSender records messages and fails while err is set.
type captureSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (s *captureSender) Send(_ context.Context, msg email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSender) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type harness struct {
	t        *testing.T
	db       *sql.DB
	resolver *Resolver
	exec     *Executor
	codec    *auth.TokenCodec
	broker   *pubsub.Broker
	mail     *captureSender
	clock    *testClock
	users    *store.UserStore
	origins  atomic.Int64
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	cfg        Config
	production bool
	secret     string
}

func withConfig(cfg Config) harnessOption {
	return func(h *harnessConfig) { h.cfg = cfg }
}

func inProduction() harnessOption {
	return func(h *harnessConfig) { h.production = true }
}

func withSecret(secret string) harnessOption {
	return func(h *harnessConfig) { h.secret = secret }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	hc := harnessConfig{
		cfg: Config{
			AdminLogin:        "root",
			AdminPassword:     "hunter2",
			AdminSecurityCode: "open-sesame",
		},
		secret: testSecret,
	}
	for _, opt := range opts {
		opt(&hc)
	}

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec := auth.NewTokenCodec(hc.secret)
	broker := pubsub.NewBroker(logger)
	mail := &captureSender{}

	r := NewResolver(db, codec, broker, mail, hc.cfg, logger,
		WithClock(clock.Now),
		WithBcryptCost(bcrypt.MinCost),
	)
	exec, err := NewExecutor(r, hc.production, logger)
	require.NoError(t, err)

	return &harness{
		t:        t,
		db:       db,
		resolver: r,
		exec:     exec,
		codec:    codec,
		broker:   broker,
		mail:     mail,
		clock:    clock,
		users:    store.NewUserStore(db),
	}
}

// anon is a request context with no identity.
func (h *harness) anon() context.Context {
	return auth.WithCaller(context.Background(), auth.Caller{Origin: h.nextOrigin()})
}

// as is a request context for u from a fresh origin, so gate counters do
// not interfere between calls.
func (h *harness) as(u *model.User) context.Context {
	return h.asFrom(u, h.nextOrigin())
}

func (h *harness) asFrom(u *model.User, origin string) context.Context {
	c := auth.Caller{Origin: origin}
	if u != nil {
		c.User = u
		c.UserID = u.ID
	}
	return auth.WithCaller(context.Background(), c)
}

func (h *harness) nextOrigin() string {
	return fmt.Sprintf("10.0.0.%d", h.origins.Add(1))
}

// createUser inserts a verified user with password "password".
func (h *harness) createUser(emailAddr string, admin bool) *model.User {
	h.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(h.t, err)

	ctx := context.Background()
	u, err := h.users.CreateVerified(ctx, emailAddr, nil, string(hash))
	require.NoError(h.t, err)
	if admin {
		u, err = h.users.SetAdmin(ctx, u.ID, true)
		require.NoError(h.t, err)
	}
	return u
}

// do runs an operation and decodes data into out (when non-nil).
func (h *harness) do(ctx context.Context, query string, vars map[string]interface{}, out interface{}) []*qerrors.QueryError {
	h.t.Helper()
	resp := h.exec.Exec(ctx, Request{Query: query, Variables: vars})
	if out != nil && len(resp.Data) > 0 {
		require.NoError(h.t, json.Unmarshal(resp.Data, out))
	}
	return resp.Errors
}

// mustDo fails the test on any GraphQL error.
func (h *harness) mustDo(ctx context.Context, query string, vars map[string]interface{}, out interface{}) {
	h.t.Helper()
	errs := h.do(ctx, query, vars, out)
	require.Empty(h.t, errs, "unexpected errors: %v", errs)
}

// errCode runs an operation that must fail and returns its code.
func (h *harness) errCode(ctx context.Context, query string, vars map[string]interface{}) string {
	h.t.Helper()
	errs := h.do(ctx, query, vars, nil)
	require.NotEmpty(h.t, errs, "expected an error")
	code, _ := errs[0].Extensions["code"].(string)
	return code
}

func (h *harness) userByEmail(emailAddr string) *model.User {
	h.t.Helper()
	u, err := h.users.GetByEmail(context.Background(), emailAddr)
	require.NoError(h.t, err)
	require.NotNil(h.t, u)
	return u
}

var errSMTPDown = errors.New("smtp: connection refused")
