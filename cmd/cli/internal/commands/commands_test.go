package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/client"
	"github.com/wolfeidau/sessionauth/internal/server"
	"github.com/wolfeidau/sessionauth/internal/server/servertest"
)

// wallClock is the time source for the cookie file, moved separately from the
// server's fake clock.
type wallClock struct {
	now time.Time
}

func (w *wallClock) Now() time.Time { return w.now }

func (w *wallClock) Advance(d time.Duration) { w.now = w.now.Add(d) }

func newGlobals(t *testing.T, opts ...servertest.Option) (*Globals, *bytes.Buffer, *servertest.Env, *wallClock) {
	t.Helper()
	env := servertest.New(t, opts...)
	out := &bytes.Buffer{}
	wall := &wallClock{now: time.Now()}
	return &Globals{
		Server:     env.URL,
		Timeout:    10 * time.Second,
		CookieFile: filepath.Join(t.TempDir(), "cookies.json"),
		Out:        out,
		now:        wall.Now,
	}, out, env, wall
}

// advance moves both the server and the cookie file forward.
func advance(env *servertest.Env, wall *wallClock, d time.Duration) {
	env.Clock.Advance(d)
	wall.Advance(d)
}

func registerAndLogin(t *testing.T, globals *Globals) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, (&RegisterCmd{Name: "Alice", Email: "alice@x.com", Password: "secret123"}).Run(ctx, globals))
	require.NoError(t, (&LoginCmd{Email: "alice@x.com", Password: "secret123"}).Run(ctx, globals))
}

func TestCommandsAcrossInvocations(t *testing.T) {
	globals, out, _, _ := newGlobals(t)
	ctx := context.Background()

	register := &RegisterCmd{Name: "Alice", Email: "alice@x.com", Password: "secret123"}
	require.NoError(t, register.Run(ctx, globals))
	require.Contains(t, out.String(), "email: alice@x.com")

	// no session yet
	require.ErrorIs(t, (&WhoamiCmd{}).Run(ctx, globals), ErrLoginRequired)

	out.Reset()
	login := &LoginCmd{Email: "alice@x.com", Password: "secret123"}
	require.NoError(t, login.Run(ctx, globals))
	require.Contains(t, out.String(), "Logged in as Alice <alice@x.com>")

	// each command reopens the cookie file
	out.Reset()
	require.NoError(t, (&WhoamiCmd{}).Run(ctx, globals))
	require.Contains(t, out.String(), "name: Alice")

	out.Reset()
	create := &PostsCreateCmd{Title: "Hello", Content: "World", Category: "general"}
	require.NoError(t, create.Run(ctx, globals))
	require.Contains(t, out.String(), "title: Hello")

	out.Reset()
	require.NoError(t, (&PostsListCmd{Limit: 10, Page: 1}).Run(ctx, globals))
	require.Contains(t, out.String(), "title: Hello")

	require.NoError(t, (&RefreshCmd{}).Run(ctx, globals))

	out.Reset()
	require.NoError(t, (&LogoutCmd{}).Run(ctx, globals))
	require.Contains(t, out.String(), "Logged out.")

	require.ErrorIs(t, (&WhoamiCmd{}).Run(ctx, globals), ErrLoginRequired)
	require.ErrorIs(t, create.Run(ctx, globals), ErrLoginRequired)
}

func TestLoginWithWrongPassword(t *testing.T) {
	globals, _, _, _ := newGlobals(t)
	ctx := context.Background()

	require.NoError(t, (&RegisterCmd{Name: "Alice", Email: "alice@x.com", Password: "secret123"}).Run(ctx, globals))

	err := (&LoginCmd{Email: "alice@x.com", Password: "wrong-password"}).Run(ctx, globals)
	require.Error(t, err)
	require.ErrorContains(t, err, "Invalid email or password")
}

func TestWhoamiRefreshesAfterAccessCookieExpires(t *testing.T) {
	globals, out, env, wall := newGlobals(t)
	ctx := context.Background()
	registerAndLogin(t, globals)

	// access_token and logged_in are gone from the jar, refresh_token is not
	advance(env, wall, server.DefaultAccessTTL+time.Minute)

	require.NoError(t, (&WhoamiCmd{}).Run(ctx, globals))
	require.Contains(t, out.String(), "name: Alice")
	require.Equal(t, 1, env.Calls(api.AuthServiceRefreshTokenProcedure))

	// the refreshed access token was saved, so the next command needs no refresh
	out.Reset()
	create := &PostsCreateCmd{Title: "Hello", Content: "World", Category: "general"}
	require.NoError(t, create.Run(ctx, globals))
	require.Contains(t, out.String(), "title: Hello")
	require.Equal(t, 1, env.Calls(api.AuthServiceRefreshTokenProcedure))
}

func TestEndedSessionFailsCommand(t *testing.T) {
	globals, _, env, wall := newGlobals(t, servertest.WithSessionTTL(30*time.Minute))
	ctx := context.Background()
	registerAndLogin(t, globals)

	// the refresh cookie is still held but the server session has lapsed
	advance(env, wall, 31*time.Minute)

	err := (&WhoamiCmd{}).Run(ctx, globals)
	require.ErrorIs(t, err, client.ErrSessionEnded)
	require.Equal(t, 1, env.Calls(api.AuthServiceRefreshTokenProcedure))
}

func TestAllCookiesExpiredRequiresLogin(t *testing.T) {
	globals, _, env, wall := newGlobals(t)
	ctx := context.Background()
	registerAndLogin(t, globals)

	advance(env, wall, 2*time.Hour)

	require.ErrorIs(t, (&WhoamiCmd{}).Run(ctx, globals), ErrLoginRequired)
	// only the login's who-am-I reached the server
	require.Equal(t, 1, env.Calls(api.AuthServiceGetMeProcedure))
	require.Equal(t, 0, env.Calls(api.AuthServiceRefreshTokenProcedure))
}
