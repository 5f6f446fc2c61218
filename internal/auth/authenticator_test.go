package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionauth/internal/clock"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
	"github.com/wolfeidau/sessionauth/internal/store/memory"
	"github.com/wolfeidau/sessionauth/internal/token"
)

type authFixture struct {
	codec    *token.Codec
	clock    *clock.Fake
	sessions *memory.SessionStore
	users    *memory.UserStore
	authn    *Authenticator
	user     *models.User
	session  *models.Session
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	access, err := token.GenerateKeyPair()
	require.NoError(t, err)
	refresh, err := token.GenerateKeyPair()
	require.NoError(t, err)

	fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	codec, err := token.NewCodec(access, refresh, token.WithClock(fake))
	require.NoError(t, err)

	sessions := memory.NewSessionStore(fake)
	users := memory.NewUserStore()

	user := &models.User{
		Principal: models.Principal{
			PrincipalID: uuid.Must(uuid.NewV7()),
			Name:        "Alice",
			Email:       "alice@x.com",
			Role:        models.RoleUser,
		},
		PasswordHash: "hash",
	}
	require.NoError(t, users.Create(context.Background(), user))

	session := &models.Session{
		SessionID:   uuid.Must(uuid.NewV7()),
		PrincipalID: user.PrincipalID,
		Principal:   *user.ToPrincipal(),
	}
	require.NoError(t, sessions.Put(context.Background(), user.PrincipalID, session, time.Hour))

	return &authFixture{
		codec:    codec,
		clock:    fake,
		sessions: sessions,
		users:    users,
		authn:    NewAuthenticator(codec, sessions, users),
		user:     user,
		session:  session,
	}
}

func (f *authFixture) accessToken(t *testing.T, sessionID uuid.UUID) string {
	t.Helper()
	tok, err := f.codec.Sign(token.Claims{
		Subject:   f.user.PrincipalID.String(),
		SessionID: sessionID.String(),
	}, token.RoleAccess, 15*time.Minute)
	require.NoError(t, err)
	return tok
}

func bearer(tok string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+tok)
	return h
}

func withCookie(h http.Header, name, value string) http.Header {
	h.Add("Cookie", (&http.Cookie{Name: name, Value: value}).String())
	return h
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("no token is anonymous", func(t *testing.T) {
		f := newAuthFixture(t)
		rc, err := f.authn.Authenticate(ctx, http.Header{})
		require.NoError(t, err)
		require.False(t, rc.Authenticated())
	})

	t.Run("bearer header", func(t *testing.T) {
		f := newAuthFixture(t)
		rc, err := f.authn.Authenticate(ctx, bearer(f.accessToken(t, f.session.SessionID)))
		require.NoError(t, err)
		require.True(t, rc.Authenticated())
		require.Equal(t, f.user.PrincipalID, rc.Principal.PrincipalID)
		require.Equal(t, f.session.SessionID, rc.SessionID)
	})

	t.Run("cookie fallback", func(t *testing.T) {
		f := newAuthFixture(t)
		h := withCookie(http.Header{}, AccessTokenCookie, f.accessToken(t, f.session.SessionID))
		rc, err := f.authn.Authenticate(ctx, h)
		require.NoError(t, err)
		require.True(t, rc.Authenticated())
	})

	t.Run("header preferred over cookie", func(t *testing.T) {
		f := newAuthFixture(t)
		h := withCookie(bearer("garbage"), AccessTokenCookie, f.accessToken(t, f.session.SessionID))
		rc, err := f.authn.Authenticate(ctx, h)
		require.NoError(t, err)
		require.False(t, rc.Authenticated())
	})

	t.Run("expired token is anonymous", func(t *testing.T) {
		f := newAuthFixture(t)
		tok := f.accessToken(t, f.session.SessionID)
		f.clock.Advance(15 * time.Minute)
		rc, err := f.authn.Authenticate(ctx, bearer(tok))
		require.NoError(t, err)
		require.False(t, rc.Authenticated())
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		f := newAuthFixture(t)
		tok, err := f.codec.Sign(token.Claims{
			Subject:   f.user.PrincipalID.String(),
			SessionID: f.session.SessionID.String(),
		}, token.RoleRefresh, time.Hour)
		require.NoError(t, err)

		rc, err := f.authn.Authenticate(ctx, bearer(tok))
		require.NoError(t, err)
		require.False(t, rc.Authenticated())
	})

	t.Run("deleted session is anonymous although token is valid", func(t *testing.T) {
		f := newAuthFixture(t)
		tok := f.accessToken(t, f.session.SessionID)
		require.NoError(t, f.sessions.Delete(ctx, f.user.PrincipalID))

		rc, err := f.authn.Authenticate(ctx, bearer(tok))
		require.NoError(t, err)
		require.False(t, rc.Authenticated())
	})

	t.Run("token from a replaced session is anonymous", func(t *testing.T) {
		f := newAuthFixture(t)
		rc, err := f.authn.Authenticate(ctx, bearer(f.accessToken(t, uuid.Must(uuid.NewV7()))))
		require.NoError(t, err)
		require.False(t, rc.Authenticated())
	})

	t.Run("vanished principal is anonymous", func(t *testing.T) {
		f := newAuthFixture(t)
		tok := f.accessToken(t, f.session.SessionID)
		require.NoError(t, f.users.Delete(ctx, f.user.PrincipalID))

		rc, err := f.authn.Authenticate(ctx, bearer(tok))
		require.NoError(t, err)
		require.False(t, rc.Authenticated())
	})

	t.Run("principal is re-read from the user store", func(t *testing.T) {
		f := newAuthFixture(t)
		require.NoError(t, f.users.Delete(ctx, f.user.PrincipalID))
		renamed := *f.user
		renamed.Name = "Alice Smith"
		require.NoError(t, f.users.Create(ctx, &renamed))

		rc, err := f.authn.Authenticate(ctx, bearer(f.accessToken(t, f.session.SessionID)))
		require.NoError(t, err)
		require.Equal(t, "Alice Smith", rc.Principal.Name)
		require.Equal(t, "Alice", f.session.Principal.Name)
	})

	t.Run("session store failure is an error", func(t *testing.T) {
		f := newAuthFixture(t)
		authn := NewAuthenticator(f.codec, failingSessions{}, f.users)
		_, err := authn.Authenticate(ctx, bearer(f.accessToken(t, f.session.SessionID)))
		require.Error(t, err)
	})
}

type failingSessions struct{}

func (failingSessions) Put(context.Context, uuid.UUID, *models.Session, time.Duration) error {
	return errors.New("boom")
}

func (failingSessions) Get(context.Context, uuid.UUID) (*models.Session, error) {
	return nil, errors.New("boom")
}

func (failingSessions) Delete(context.Context, uuid.UUID) error {
	return errors.New("boom")
}

var _ store.SessionStore = failingSessions{}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name       string
		authz      string
		cookie     string
		wantToken  string
		wantSource string
	}{
		{name: "bearer header", authz: "Bearer abc", wantToken: "abc", wantSource: SourceHeader},
		{name: "scheme is case insensitive", authz: "bearer abc", wantToken: "abc", wantSource: SourceHeader},
		{name: "header preferred over cookie", authz: "Bearer abc", cookie: "def", wantToken: "abc", wantSource: SourceHeader},
		{name: "cookie only", cookie: "def", wantToken: "def", wantSource: SourceCookie},
		{name: "empty bearer falls back to cookie", authz: "Bearer ", cookie: "def", wantToken: "def", wantSource: SourceCookie},
		{name: "blank bearer falls back to cookie", authz: "Bearer    ", cookie: "def", wantToken: "def", wantSource: SourceCookie},
		{name: "other scheme falls back to cookie", authz: "Basic dXNlcjpwYXNz", cookie: "def", wantToken: "def", wantSource: SourceCookie},
		{name: "other scheme without cookie", authz: "Basic dXNlcjpwYXNz"},
		{name: "nothing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.authz != "" {
				h.Set("Authorization", tt.authz)
			}
			if tt.cookie != "" {
				h = withCookie(h, AccessTokenCookie, tt.cookie)
			}

			tok, source := ExtractToken(h)
			require.Equal(t, tt.wantToken, tok)
			require.Equal(t, tt.wantSource, source)
		})
	}
}
