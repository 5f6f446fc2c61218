package commands

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionauth/internal/token"
)

func validServe(dir string) *ServeCmd {
	return &ServeCmd{
		Keys: KeyFlags{
			AccessPrivate:  filepath.Join(dir, "access.pem"),
			AccessPublic:   filepath.Join(dir, "access.pub.pem"),
			RefreshPrivate: filepath.Join(dir, "refresh.pem"),
			RefreshPublic:  filepath.Join(dir, "refresh.pub.pem"),
			Issuer:         "sessionauth",
		},
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   time.Hour,
		SessionTTL:   time.Hour,
		SessionStore: "memory",
		DataStore:    "memory",
		Origins:      []string{"http://localhost:3000"},
	}
}

func TestKeygenWritesLoadableKeys(t *testing.T) {
	dir := t.TempDir()

	keygen := &KeygenCmd{Dir: dir}
	require.NoError(t, keygen.Run(&Globals{}))

	info, err := os.Stat(filepath.Join(dir, "access.pem"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	codec, err := validServe(dir).Keys.codec()
	require.NoError(t, err)

	signed, err := codec.Sign(token.Claims{Subject: "p1"}, token.RoleAccess, time.Minute)
	require.NoError(t, err)
	_, err = codec.Verify(signed, token.RoleRefresh)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	// refuses to overwrite without --force
	require.Error(t, keygen.Run(&Globals{}))
	keygen.Force = true
	require.NoError(t, keygen.Run(&Globals{}))
}

func TestInlinePEM(t *testing.T) {
	pair, err := token.GenerateKeyPair()
	require.NoError(t, err)
	privatePEM, publicPEM, err := pair.EncodePEM()
	require.NoError(t, err)

	loaded, err := loadKeyPair(string(privatePEM), string(publicPEM))
	require.NoError(t, err)
	require.NotNil(t, loaded)
}

func TestServeValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *ServeCmd)
		wantErr string
	}{
		{name: "valid", mutate: func(*ServeCmd) {}},
		{
			name:    "missing refresh key",
			mutate:  func(c *ServeCmd) { c.Keys.RefreshPublic = "" },
			wantErr: "refresh key pair is required",
		},
		{
			name:    "cert without key",
			mutate:  func(c *ServeCmd) { c.Cert = "cert.pem" },
			wantErr: "TLS needs both",
		},
		{
			name:    "access outlives refresh",
			mutate:  func(c *ServeCmd) { c.AccessTTL = 2 * time.Hour },
			wantErr: "must not exceed refresh",
		},
		{
			name:    "postgres without connection string",
			mutate:  func(c *ServeCmd) { c.SessionStore = "postgres" },
			wantErr: "connection string is required",
		},
		{
			name: "postgres pool bounds",
			mutate: func(c *ServeCmd) {
				c.DataStore = "postgres"
				c.Postgres = PostgresStoreFlags{ConnString: "postgres://localhost/db", MinConns: 5, MaxConns: 2, SweepInterval: time.Minute}
			},
			wantErr: "must not exceed max conns",
		},
		{
			name: "postgres sweep interval",
			mutate: func(c *ServeCmd) {
				c.SessionStore = "postgres"
				c.Postgres = PostgresStoreFlags{ConnString: "postgres://localhost/db", MinConns: 2, MaxConns: 20}
			},
			wantErr: "sweep interval must be positive",
		},
		{
			name: "postgres valid",
			mutate: func(c *ServeCmd) {
				c.SessionStore = "postgres"
				c.Postgres = PostgresStoreFlags{ConnString: "postgres://localhost/db", MinConns: 2, MaxConns: 20, SweepInterval: time.Minute}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validServe(t.TempDir())
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestProtect(t *testing.T) {
	c := validServe(t.TempDir())
	h, err := c.protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	require.NoError(t, err)

	call := func(origin, fetchSite string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "http://api.local/auth.v1.AuthService/GetMe", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		if fetchSite != "" {
			req.Header.Set("Sec-Fetch-Site", fetchSite)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	// non-browser clients send no fetch metadata
	require.Equal(t, http.StatusOK, call("", "").Code)

	rec := call("http://localhost:3000", "cross-site")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	require.Equal(t, http.StatusForbidden, call("https://evil.example", "cross-site").Code)
}

func TestProtectRejectsBadOrigin(t *testing.T) {
	c := validServe(t.TempDir())
	c.Origins = []string{"not a url"}
	_, err := c.protect(http.NotFoundHandler())
	require.Error(t, err)
}
