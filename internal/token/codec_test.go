package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionauth/internal/clock"
)

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCodec(t *testing.T) (*Codec, *clock.Fake) {
	t.Helper()

	access, err := GenerateKeyPair()
	require.NoError(t, err)
	refresh, err := GenerateKeyPair()
	require.NoError(t, err)

	fake := clock.NewFake(testStart)
	codec, err := NewCodec(access, refresh, WithClock(fake))
	require.NoError(t, err)

	return codec, fake
}

func TestCodecRoundTrip(t *testing.T) {
	codec, _ := newTestCodec(t)

	tokenStr, err := codec.Sign(Claims{Subject: "user-1", SessionID: "sess-1", ID: "jti-1"}, RoleAccess, 15*time.Minute)
	require.NoError(t, err)

	claims, err := codec.Verify(tokenStr, RoleAccess)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "sess-1", claims.SessionID)
	require.Equal(t, "jti-1", claims.ID)
	require.True(t, claims.IssuedAt.Equal(testStart))
	require.True(t, claims.ExpiresAt.Equal(testStart.Add(15*time.Minute)))
}

func TestCodecExpiry(t *testing.T) {
	codec, fake := newTestCodec(t)

	tokenStr, err := codec.Sign(Claims{Subject: "user-1"}, RoleRefresh, time.Hour)
	require.NoError(t, err)

	fake.Advance(time.Hour - time.Second)
	_, err = codec.Verify(tokenStr, RoleRefresh)
	require.NoError(t, err)

	fake.Advance(time.Second)
	_, err = codec.Verify(tokenStr, RoleRefresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodecRejectsWrongRole(t *testing.T) {
	codec, _ := newTestCodec(t)

	refreshToken, err := codec.Sign(Claims{Subject: "user-1"}, RoleRefresh, time.Hour)
	require.NoError(t, err)

	claims, err := codec.Verify(refreshToken, RoleAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Nil(t, claims)
}

func TestCodecRejectsSameKeyDifferentRole(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)

	codec, err := NewCodec(key, key)
	require.NoError(t, err)

	accessToken, err := codec.Sign(Claims{Subject: "user-1"}, RoleAccess, time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(accessToken, RoleRefresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodecRejectsForeignKey(t *testing.T) {
	codec, _ := newTestCodec(t)
	other, _ := newTestCodec(t)

	tokenStr, err := other.Sign(Claims{Subject: "user-1"}, RoleAccess, time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(tokenStr, RoleAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodecRejectsMalformed(t *testing.T) {
	codec, _ := newTestCodec(t)

	good, err := codec.Sign(Claims{Subject: "user-1"}, RoleAccess, time.Minute)
	require.NoError(t, err)

	parts := strings.Split(good, ".")
	require.Len(t, parts, 3)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-token"},
		{name: "tampered signature", token: parts[0] + "." + parts[1] + ".AAAA"},
		{name: "missing signature", token: parts[0] + "." + parts[1] + "."},
		{name: "alg none", token: "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." + parts[1] + "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Verify(tt.token, RoleAccess)
			require.ErrorIs(t, err, ErrInvalidToken)
			require.Nil(t, claims)
		})
	}
}

func TestCodecSignValidation(t *testing.T) {
	codec, _ := newTestCodec(t)

	_, err := codec.Sign(Claims{}, RoleAccess, time.Minute)
	require.Error(t, err)

	_, err = codec.Sign(Claims{Subject: "user-1"}, RoleAccess, 0)
	require.Error(t, err)

	_, err = codec.Sign(Claims{Subject: "user-1"}, KeyRole(99), time.Minute)
	require.Error(t, err)
}

func TestParseKeyPair(t *testing.T) {
	key, err := GenerateKeyPair()
	require.NoError(t, err)

	privatePEM, publicPEM, err := key.EncodePEM()
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		parsed, err := ParseKeyPair(string(privatePEM), string(publicPEM))
		require.NoError(t, err)
		require.Equal(t, key.Kid, parsed.Kid)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseKeyPair("", string(publicPEM))
		require.Error(t, err)
	})

	t.Run("mismatched public key", func(t *testing.T) {
		other, err := GenerateKeyPair()
		require.NoError(t, err)
		_, otherPublicPEM, err := other.EncodePEM()
		require.NoError(t, err)

		_, err = ParseKeyPair(string(privatePEM), string(otherPublicPEM))
		require.Error(t, err)
		require.Contains(t, err.Error(), "does not match")
	})

	t.Run("invalid PEM", func(t *testing.T) {
		_, err := ParseKeyPair("invalid", "invalid")
		require.Error(t, err)
	})
}
