// Package servertest runs the auth and post services on an httptest server
// backed by memory stores and a fake clock.
package servertest

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionauth/internal/auth"
	"github.com/wolfeidau/sessionauth/internal/clock"
	"github.com/wolfeidau/sessionauth/internal/password"
	"github.com/wolfeidau/sessionauth/internal/server"
	"github.com/wolfeidau/sessionauth/internal/store/memory"
	"github.com/wolfeidau/sessionauth/internal/token"
	"golang.org/x/crypto/bcrypt"
)

// Start is the fake clock's initial time.
var Start = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// Env is a running test server.
type Env struct {
	URL      string
	Clock    *clock.Fake
	Codec    *token.Codec
	Sessions *memory.SessionStore
	Users    *memory.UserStore
	Posts    *memory.PostStore

	mu    sync.Mutex
	calls map[string]int
}

// Calls returns how many times procedure reached the server.
func (e *Env) Calls(procedure string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[procedure]
}

func (e *Env) countCalls(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		e.mu.Lock()
		e.calls[req.Spec().Procedure]++
		e.mu.Unlock()
		return next(ctx, req)
	}
}

// Option adjusts the AuthService configuration before the server starts.
type Option func(*server.AuthConfig)

// WithSessionTTL sets the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(cfg *server.AuthConfig) { cfg.SessionTTL = ttl }
}

// WithRotateRefresh turns on refresh token rotation.
func WithRotateRefresh() Option {
	return func(cfg *server.AuthConfig) { cfg.RotateRefresh = true }
}

// New starts a server and registers its shutdown with t.Cleanup.
func New(t testing.TB, opts ...Option) *Env {
	t.Helper()

	access, err := token.GenerateKeyPair()
	require.NoError(t, err)
	refresh, err := token.GenerateKeyPair()
	require.NoError(t, err)

	fake := clock.NewFake(Start)
	codec, err := token.NewCodec(access, refresh, token.WithClock(fake))
	require.NoError(t, err)

	hasher, err := password.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	env := &Env{
		Clock:    fake,
		Codec:    codec,
		Sessions: memory.NewSessionStore(fake),
		Users:    memory.NewUserStore(),
		Posts:    memory.NewPostStore(),
		calls:    make(map[string]int),
	}

	cfg := server.AuthConfig{
		Tokens:   codec,
		Sessions: env.Sessions,
		Users:    env.Users,
		Hasher:   hasher,
		Cookies:  auth.NewCookies(auth.CookieConfig{}, fake),
		Clock:    fake,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	srv := server.NewServer(
		server.NewAuthService(cfg),
		server.NewPostService(env.Posts, env.Users, fake),
		auth.NewAuthenticator(codec, env.Sessions, env.Users),
	)

	ts := httptest.NewServer(srv.Handler(zerolog.Nop(), connect.UnaryInterceptorFunc(env.countCalls)))
	t.Cleanup(ts.Close)
	env.URL = ts.URL

	return env
}

// HTTPClient returns a client with its own empty cookie jar.
func (e *Env) HTTPClient(t testing.TB) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}
