package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/auth"
	"github.com/wolfeidau/sessionauth/internal/clock"
	httpmiddleware "github.com/wolfeidau/sessionauth/internal/http"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/password"
	"github.com/wolfeidau/sessionauth/internal/store"
	"github.com/wolfeidau/sessionauth/internal/telemetry"
	"github.com/wolfeidau/sessionauth/internal/token"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Default lifetimes.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 60 * time.Minute
	DefaultSessionTTL = 60 * time.Minute
)

var _ api.AuthServiceHandler = (*AuthService)(nil)

// Tokens signs and verifies access and refresh tokens. *token.Codec implements it.
type Tokens interface {
	Sign(claims token.Claims, role token.KeyRole, ttl time.Duration) (string, error)
	Verify(tokenStr string, role token.KeyRole) (*token.Claims, error)
}

// AuthConfig holds the collaborators and lifetimes of the AuthService.
type AuthConfig struct {
	Tokens   Tokens
	Sessions store.SessionStore
	Users    store.UserStore
	Hasher   *password.Hasher
	Cookies  *auth.Cookies
	Clock    clock.Clock

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	SessionTTL time.Duration

	// RotateRefresh mints a new refresh token on every refresh, invalidating the previous one.
	RotateRefresh bool
}

// AuthService implements registration, login, refresh, logout and who-am-i.
type AuthService struct {
	cfg AuthConfig
}

// NewAuthService creates an AuthService, filling in default lifetimes and clock.
func NewAuthService(cfg AuthConfig) *AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.System
	}
	if cfg.Cookies == nil {
		cfg.Cookies = auth.NewCookies(auth.CookieConfig{}, cfg.Clock)
	}
	return &AuthService{cfg: cfg}
}

// RegisterUser creates a user. The caller must still log in.
func (s *AuthService) RegisterUser(
	ctx context.Context,
	req *connect.Request[api.RegisterUserRequest],
) (*connect.Response[api.RegisterUserResponse], error) {
	m := telemetry.GetMetrics()

	email, err := validateRegistration(req.Msg)
	if err != nil {
		telemetry.RecordOutcome(ctx, m.RegistrationsTotal, false)
		return nil, err
	}

	hash, err := s.cfg.Hasher.Hash(req.Msg.Password)
	if err != nil {
		return nil, auth.Internal(ctx, err, "Failed to hash password")
	}

	principalID, err := uuid.NewV7()
	if err != nil {
		return nil, auth.Internal(ctx, err, "Failed to generate principal ID")
	}

	photo := req.Msg.Photo
	if photo == "" {
		photo = DefaultPhoto
	}

	now := s.cfg.Clock.Now()
	user := &models.User{
		Principal: models.Principal{
			PrincipalID: principalID,
			Name:        req.Msg.Name,
			Email:       email,
			Role:        models.RoleUser,
			Photo:       photo,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		PasswordHash: hash,
	}

	if err := s.cfg.Users.Create(ctx, user); err != nil {
		telemetry.RecordOutcome(ctx, m.RegistrationsTotal, false)
		if errors.Is(err, store.ErrUserAlreadyExists) {
			return nil, auth.NewError(auth.KindConflict, auth.MsgEmailExists)
		}
		return nil, auth.Internal(ctx, err, "Failed to create user")
	}

	telemetry.RecordOutcome(ctx, m.RegistrationsTotal, true)

	zerolog.Ctx(ctx).Info().
		Str("principal_id", principalID.String()).
		Msg("User registered")

	return connect.NewResponse(&api.RegisterUserResponse{
		Status: api.StatusSuccess,
		User:   toAPIUser(user.ToPrincipal()),
	}), nil
}

// LoginUser checks credentials, starts a session and sets the cookie triple.
// Unknown email and wrong password fail identically.
func (s *AuthService) LoginUser(
	ctx context.Context,
	req *connect.Request[api.LoginUserRequest],
) (*connect.Response[api.LoginUserResponse], error) {
	m := telemetry.GetMetrics()
	invalid := func() error {
		telemetry.RecordOutcome(ctx, m.LoginsTotal, false)
		return auth.NewError(auth.KindInvalidCredentials, auth.MsgInvalidCredentials)
	}

	user, err := s.cfg.Users.GetByEmail(ctx, normalizeEmail(req.Msg.Email))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			s.cfg.Hasher.VerifyDummy(req.Msg.Password)
			return nil, invalid()
		}
		return nil, auth.Internal(ctx, err, "Failed to look up user")
	}

	if err := s.cfg.Hasher.Verify(req.Msg.Password, user.PasswordHash); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, invalid()
		}
		return nil, auth.Internal(ctx, err, "Failed to verify password")
	}

	sessionID, err := uuid.NewV7()
	if err != nil {
		return nil, auth.Internal(ctx, err, "Failed to generate session ID")
	}

	accessToken, refreshToken, refreshID, err := s.mintPair(user.PrincipalID, sessionID)
	if err != nil {
		return nil, auth.Internal(ctx, err, "Failed to sign tokens")
	}

	meta := httpmiddleware.RequestMetaFromContext(ctx)
	userAgent := meta.UserAgent
	if userAgent == "" {
		userAgent = req.Header().Get("User-Agent")
	}

	now := s.cfg.Clock.Now()
	session := &models.Session{
		SessionID:   sessionID,
		PrincipalID: user.PrincipalID,
		RefreshID:   refreshID,
		Principal:   *user.ToPrincipal(),
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.cfg.SessionTTL),
		UserAgent:   userAgent,
		IPAddress:   meta.ClientIP,
	}

	if err := s.cfg.Sessions.Put(ctx, user.PrincipalID, session, s.cfg.SessionTTL); err != nil {
		s.sessionStoreError(ctx, "put")
		return nil, auth.Internal(ctx, err, "Failed to store session")
	}

	telemetry.RecordOutcome(ctx, m.LoginsTotal, true)

	zerolog.Ctx(ctx).Info().
		Str("principal_id", user.PrincipalID.String()).
		Str("session_id", sessionID.String()).
		Str("ip_address", meta.ClientIP).
		Str("user_agent", userAgent).
		Msg("User logged in")

	resp := connect.NewResponse(&api.LoginUserResponse{
		Status:      api.StatusSuccess,
		AccessToken: accessToken,
	})
	s.cfg.Cookies.SetLogin(resp.Header(), accessToken, refreshToken, s.cfg.AccessTTL, s.cfg.RefreshTTL)

	return resp, nil
}

// RefreshToken mints a new access token from the refresh_token cookie and
// extends the session. Every failure is Forbidden.
func (s *AuthService) RefreshToken(
	ctx context.Context,
	req *connect.Request[api.RefreshTokenRequest],
) (*connect.Response[api.RefreshTokenResponse], error) {
	m := telemetry.GetMetrics()
	log := zerolog.Ctx(ctx)
	forbidden := func(reason string) error {
		log.Debug().Str("reason", reason).Msg("Refresh rejected")
		telemetry.RecordOutcome(ctx, m.RefreshesTotal, false)
		return auth.NewError(auth.KindForbidden, auth.MsgRefreshFailed)
	}

	refreshCookie := auth.CookieValue(req.Header(), auth.RefreshTokenCookie)
	if refreshCookie == "" {
		return nil, forbidden("missing refresh token")
	}

	claims, err := s.cfg.Tokens.Verify(refreshCookie, token.RoleRefresh)
	if err != nil {
		return nil, forbidden("invalid refresh token")
	}

	principalID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, forbidden("invalid subject")
	}

	session, err := s.cfg.Sessions.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, forbidden("no live session")
		}
		s.sessionStoreError(ctx, "get")
		return nil, auth.Internal(ctx, err, "Failed to load session")
	}

	if session.SessionID.String() != claims.SessionID {
		return nil, forbidden("session replaced")
	}
	if session.RefreshID != claims.ID {
		return nil, forbidden("refresh token superseded")
	}

	user, err := s.cfg.Users.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, forbidden("principal vanished")
		}
		return nil, auth.Internal(ctx, err, "Failed to load principal")
	}

	accessToken, err := s.cfg.Tokens.Sign(token.Claims{
		Subject:   principalID.String(),
		SessionID: session.SessionID.String(),
	}, token.RoleAccess, s.cfg.AccessTTL)
	if err != nil {
		return nil, auth.Internal(ctx, err, "Failed to sign access token")
	}

	var rotated string
	if s.cfg.RotateRefresh {
		refreshID := uuid.NewString()
		rotated, err = s.cfg.Tokens.Sign(token.Claims{
			Subject:   principalID.String(),
			SessionID: session.SessionID.String(),
			ID:        refreshID,
		}, token.RoleRefresh, s.cfg.RefreshTTL)
		if err != nil {
			return nil, auth.Internal(ctx, err, "Failed to sign refresh token")
		}
		session.RefreshID = refreshID
	}

	session.Principal = *user.ToPrincipal()
	session.ExpiresAt = s.cfg.Clock.Now().Add(s.cfg.SessionTTL)
	if err := s.cfg.Sessions.Put(ctx, principalID, session, s.cfg.SessionTTL); err != nil {
		s.sessionStoreError(ctx, "put")
		return nil, auth.Internal(ctx, err, "Failed to extend session")
	}

	telemetry.RecordOutcome(ctx, m.RefreshesTotal, true)

	log.Debug().
		Str("principal_id", principalID.String()).
		Bool("rotated", rotated != "").
		Msg("Access token refreshed")

	resp := connect.NewResponse(&api.RefreshTokenResponse{
		Status:      api.StatusSuccess,
		AccessToken: accessToken,
	})
	s.cfg.Cookies.SetAccess(resp.Header(), accessToken, s.cfg.AccessTTL)
	if rotated != "" {
		s.cfg.Cookies.SetRefresh(resp.Header(), rotated, s.cfg.RefreshTTL)
	}

	return resp, nil
}

// LogoutUser ends the caller's session and clears the cookie triple. It
// succeeds for anonymous callers. When the access token has already expired
// the session is found through the refresh_token cookie instead.
func (s *AuthService) LogoutUser(
	ctx context.Context,
	req *connect.Request[api.LogoutUserRequest],
) (*connect.Response[api.LogoutUserResponse], error) {
	principalID, ok, err := s.logoutTarget(ctx, req.Header())
	if err != nil {
		return nil, err
	}

	if ok {
		if err := s.cfg.Sessions.Delete(ctx, principalID); err != nil {
			s.sessionStoreError(ctx, "delete")
			return nil, auth.Internal(ctx, err, "Failed to delete session")
		}
		zerolog.Ctx(ctx).Info().Str("principal_id", principalID.String()).Msg("User logged out")
	}

	telemetry.GetMetrics().LogoutsTotal.Add(ctx, 1)

	resp := connect.NewResponse(&api.LogoutUserResponse{Status: api.StatusSuccess})
	s.cfg.Cookies.Clear(resp.Header())

	return resp, nil
}

func (s *AuthService) logoutTarget(ctx context.Context, h http.Header) (uuid.UUID, bool, error) {
	if principal := auth.PrincipalFromContext(ctx); principal != nil {
		return principal.PrincipalID, true, nil
	}

	refreshCookie := auth.CookieValue(h, auth.RefreshTokenCookie)
	if refreshCookie == "" {
		return uuid.Nil, false, nil
	}

	claims, err := s.cfg.Tokens.Verify(refreshCookie, token.RoleRefresh)
	if err != nil {
		return uuid.Nil, false, nil
	}

	principalID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, false, nil
	}

	session, err := s.cfg.Sessions.Get(ctx, principalID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return uuid.Nil, false, nil
		}
		s.sessionStoreError(ctx, "get")
		return uuid.Nil, false, auth.Internal(ctx, err, "Failed to load session")
	}

	// a stale refresh token must not end a newer login
	if session.SessionID.String() != claims.SessionID {
		return uuid.Nil, false, nil
	}

	return principalID, true, nil
}

// GetMe returns the authenticated principal.
func (s *AuthService) GetMe(
	ctx context.Context,
	req *connect.Request[api.GetMeRequest],
) (*connect.Response[api.GetMeResponse], error) {
	principal, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetMeResponse{
		Status: api.StatusSuccess,
		User:   toAPIUser(principal),
	}), nil
}

func (s *AuthService) mintPair(principalID, sessionID uuid.UUID) (accessToken, refreshToken, refreshID string, err error) {
	accessToken, err = s.cfg.Tokens.Sign(token.Claims{
		Subject:   principalID.String(),
		SessionID: sessionID.String(),
	}, token.RoleAccess, s.cfg.AccessTTL)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshID = uuid.NewString()
	refreshToken, err = s.cfg.Tokens.Sign(token.Claims{
		Subject:   principalID.String(),
		SessionID: sessionID.String(),
		ID:        refreshID,
	}, token.RoleRefresh, s.cfg.RefreshTTL)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return accessToken, refreshToken, refreshID, nil
}

func (s *AuthService) sessionStoreError(ctx context.Context, op string) {
	telemetry.GetMetrics().SessionStoreErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
