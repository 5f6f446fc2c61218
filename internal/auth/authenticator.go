package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
	"github.com/wolfeidau/sessionauth/internal/telemetry"
	"github.com/wolfeidau/sessionauth/internal/token"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Verifier checks access tokens. *token.Codec implements it.
type Verifier interface {
	Verify(tokenStr string, role token.KeyRole) (*token.Claims, error)
}

// UserGetter resolves a principal ID to its current user record.
type UserGetter interface {
	Get(ctx context.Context, principalID uuid.UUID) (*models.User, error)
}

// Authenticator turns request headers into a RequestContext.
type Authenticator struct {
	verifier Verifier
	sessions store.SessionStore
	users    UserGetter
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(verifier Verifier, sessions store.SessionStore, users UserGetter) *Authenticator {
	return &Authenticator{
		verifier: verifier,
		sessions: sessions,
		users:    users,
	}
}

// Authenticate resolves the caller of a request. Missing, invalid and expired
// tokens, absent sessions and vanished principals all yield Anonymous with a nil
// error. An error is returned only when a store fails.
func (a *Authenticator) Authenticate(ctx context.Context, h http.Header) (RequestContext, error) {
	started := time.Now()
	rc, err := a.authenticate(ctx, h)

	m := telemetry.GetMetrics()
	result := "anonymous"
	switch {
	case err != nil:
		result = "error"
	case rc.Authenticated():
		result = "authenticated"
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	m.RequestsTotal.Add(ctx, 1, attrs)
	m.AuthenticateDuration.Record(ctx, float64(time.Since(started).Microseconds())/1000.0, attrs)

	return rc, err
}

func (a *Authenticator) authenticate(ctx context.Context, h http.Header) (RequestContext, error) {
	log := zerolog.Ctx(ctx)

	tokenStr, source := ExtractToken(h)
	if tokenStr == "" {
		return Anonymous, nil
	}

	claims, err := a.verifier.Verify(tokenStr, token.RoleAccess)
	if err != nil {
		log.Debug().Str("source", source).Msg("Access token rejected")
		return Anonymous, nil
	}

	principalID, err := uuid.Parse(claims.Subject)
	if err != nil {
		log.Debug().Str("subject", claims.Subject).Msg("Access token subject is not a principal id")
		return Anonymous, nil
	}

	session, err := a.sessions.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			log.Debug().Str("principal_id", principalID.String()).Msg("No live session for access token")
			return Anonymous, nil
		}
		telemetry.GetMetrics().SessionStoreErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "get")))
		return Anonymous, fmt.Errorf("failed to load session: %w", err)
	}

	// tokens minted for an earlier login no longer authenticate
	if session.SessionID.String() != claims.SessionID {
		log.Debug().
			Str("principal_id", principalID.String()).
			Str("session_id", claims.SessionID).
			Msg("Access token belongs to a replaced session")
		return Anonymous, nil
	}

	user, err := a.users.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug().Str("principal_id", principalID.String()).Msg("Principal no longer exists")
			return Anonymous, nil
		}
		return Anonymous, fmt.Errorf("failed to load principal: %w", err)
	}

	return RequestContext{
		Principal: user.ToPrincipal(),
		SessionID: session.SessionID,
	}, nil
}

// Token sources reported by ExtractToken.
const (
	SourceHeader = "header"
	SourceCookie = "cookie"
)

// ExtractToken returns the bearer token from the Authorization header, falling
// back to the access_token cookie when the header is absent or carries no token.
// The scheme is matched case-insensitively.
func ExtractToken(h http.Header) (tokenStr, source string) {
	if scheme, bearer, ok := strings.Cut(strings.TrimSpace(h.Get("Authorization")), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if bearer = strings.TrimSpace(bearer); bearer != "" {
			return bearer, SourceHeader
		}
	}

	if cookie := CookieValue(h, AccessTokenCookie); cookie != "" {
		return cookie, SourceCookie
	}

	return "", ""
}
