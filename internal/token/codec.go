// Package token signs and verifies the access and refresh tokens used for
// session authentication.
//
// Tokens are ES256 JWTs. Each key role has its own key pair, its own audience
// and its key ID in the header, so a refresh token never verifies as an access
// token and vice versa. Verification failures are collapsed into ErrInvalidToken;
// callers cannot tell a malformed token from an expired one.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionauth/internal/clock"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// KeyRole selects which key pair signs or verifies a token.
type KeyRole int

const (
	RoleAccess KeyRole = iota + 1
	RoleRefresh
)

func (r KeyRole) String() string {
	switch r {
	case RoleAccess:
		return "access"
	case RoleRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

// DefaultIssuer is the iss claim used when none is configured.
const DefaultIssuer = "sessionauth"

// Claims are the verified contents of a token.
type Claims struct {
	Subject   string // principal id
	SessionID string // binds the token to one login
	ID        string // jti, only meaningful for refresh tokens
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens for both key roles.
type Codec struct {
	keys   map[KeyRole]*KeyPair
	clock  clock.Clock
	issuer string
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for iat/exp and verification.
func WithClock(c clock.Clock) Option {
	return func(codec *Codec) {
		codec.clock = c
	}
}

// WithIssuer overrides the iss claim.
func WithIssuer(issuer string) Option {
	return func(codec *Codec) {
		codec.issuer = issuer
	}
}

// NewCodec creates a codec from the access and refresh key pairs.
func NewCodec(access, refresh *KeyPair, opts ...Option) (*Codec, error) {
	if access == nil || refresh == nil {
		return nil, errors.New("access and refresh key pairs are required")
	}

	c := &Codec{
		keys: map[KeyRole]*KeyPair{
			RoleAccess:  access,
			RoleRefresh: refresh,
		},
		clock:  clock.System,
		issuer: DefaultIssuer,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Sign encodes claims as a token that expires ttl from now.
// IssuedAt and ExpiresAt on the input are ignored.
func (c *Codec) Sign(claims Claims, role KeyRole, ttl time.Duration) (string, error) {
	key, ok := c.keys[role]
	if !ok || key.Private == nil {
		return "", fmt.Errorf("no signing key for %s role", role)
	}

	if claims.Subject == "" {
		return "", errors.New("token subject is required")
	}

	if ttl <= 0 {
		return "", errors.New("token ttl must be greater than 0")
	}

	now := c.clock.Now()
	tc := &tokenClaims{
		SessionID: claims.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   claims.Subject,
			Audience:  jwt.ClaimStrings{role.String()},
			ID:        claims.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodES256, tc)
	t.Header["kid"] = key.Kid

	signed, err := t.SignedString(key.Private)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", role, err)
	}

	return signed, nil
}

// Verify checks the signature, key ID, audience, issuer and expiry of a token.
// Any failure returns ErrInvalidToken and no claims.
func (c *Codec) Verify(tokenStr string, role KeyRole) (*Claims, error) {
	key, ok := c.keys[role]
	if !ok || tokenStr == "" {
		return nil, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid != key.Kid {
			return nil, errors.New("unknown key id")
		}
		return key.Public, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(role.String()),
	)
	if err != nil {
		log.Debug().Err(err).Str("role", role.String()).Msg("token verification failed")
		return nil, ErrInvalidToken
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || tc.Subject == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		Subject:   tc.Subject,
		SessionID: tc.SessionID,
		ID:        tc.ID,
	}
	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}

	return claims, nil
}
