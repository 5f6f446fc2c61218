package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"connectrpc.com/otelconnect"
	"filippo.io/csrf"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionauth/internal/auth"
	"github.com/wolfeidau/sessionauth/internal/clock"
	"github.com/wolfeidau/sessionauth/internal/logger"
	"github.com/wolfeidau/sessionauth/internal/password"
	"github.com/wolfeidau/sessionauth/internal/server"
	"github.com/wolfeidau/sessionauth/internal/telemetry"
)

type ServeCmd struct {
	// Server configuration
	Listen          string        `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"SESSIONAUTH_LISTEN"`
	Cert            string        `help:"path to TLS cert file" default:"" env:"SESSIONAUTH_TLS_CERT"`
	Key             string        `help:"path to TLS key file" default:"" env:"SESSIONAUTH_TLS_KEY"`
	ShutdownTimeout time.Duration `help:"time allowed for in-flight requests on shutdown" default:"10s"`

	// Origins allowed to call the API with cookies (CORS and CSRF)
	Origins []string `help:"allowed browser origins" default:"http://localhost:3000" env:"SESSIONAUTH_ORIGINS"`

	// Token and session configuration
	Keys          KeyFlags      `embed:"" prefix:"keys-"`
	AccessTTL     time.Duration `help:"access token lifetime" default:"15m" env:"SESSIONAUTH_ACCESS_TTL"`
	RefreshTTL    time.Duration `help:"refresh token lifetime" default:"60m" env:"SESSIONAUTH_REFRESH_TTL"`
	SessionTTL    time.Duration `help:"session lifetime, extended on each refresh" default:"60m" env:"SESSIONAUTH_SESSION_TTL"`
	RotateRefresh bool          `help:"issue a new refresh token on every refresh" default:"false" env:"SESSIONAUTH_ROTATE_REFRESH"`
	SecureCookies bool          `help:"mark cookies Secure (requires HTTPS)" default:"false" env:"SESSIONAUTH_SECURE_COOKIES"`
	CookieDomain  string        `help:"cookie domain" default:"" env:"SESSIONAUTH_COOKIE_DOMAIN"`
	BcryptCost    int           `help:"bcrypt cost for password hashes" default:"10" env:"SESSIONAUTH_BCRYPT_COST"`
	TrustProxy    bool          `help:"take the client IP from X-Forwarded-For / X-Real-IP" default:"false" env:"SESSIONAUTH_TRUST_PROXY"`

	// Telemetry
	Tracing     bool    `help:"enable tracing" default:"false" env:"SESSIONAUTH_TRACING"`
	SampleRatio float64 `help:"fraction of traces recorded" default:"1" env:"SESSIONAUTH_TRACE_SAMPLE_RATIO"`

	// Store configuration
	SessionStore string             `help:"session store type" default:"memory" env:"SESSIONAUTH_SESSION_STORE" enum:"memory,redis,postgres"`
	DataStore    string             `help:"user and post store type" default:"memory" env:"SESSIONAUTH_DATA_STORE" enum:"memory,postgres"`
	Redis        RedisFlags         `embed:"" prefix:"redis-"`
	Postgres     PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *ServeCmd) Validate() error {
	if err := c.Keys.Validate(); err != nil {
		return err
	}
	if (c.Cert == "") != (c.Key == "") {
		return errors.New("TLS needs both --cert and --key")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("token and session lifetimes must be positive")
	}
	if c.AccessTTL > c.RefreshTTL {
		return errors.New("access token lifetime must not exceed refresh token lifetime")
	}
	if c.SessionStore == "postgres" || c.DataStore == "postgres" {
		if err := c.Postgres.validate(); err != nil {
			return err
		}
	}
	if c.SessionStore == "redis" && c.Redis.URL == "" {
		return errors.New("redis URL is required for the redis session store (--redis-url)")
	}
	return nil
}

func (c *ServeCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	var interceptors []connect.Interceptor
	if c.Tracing {
		log.Info().Float64("sample_ratio", c.SampleRatio).Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "sessionauth-server",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
		otelInterceptor, err := otelconnect.NewInterceptor()
		if err != nil {
			return fmt.Errorf("failed to create OTEL interceptor: %w", err)
		}
		interceptors = append(interceptors, otelInterceptor)
	}

	codec, err := c.Keys.codec()
	if err != nil {
		return err
	}

	hasher, err := password.NewHasher(c.BcryptCost)
	if err != nil {
		return err
	}

	st, err := c.openStores(ctx, clock.System)
	if err != nil {
		return err
	}
	defer st.Close()

	authSvc := server.NewAuthService(server.AuthConfig{
		Tokens:        codec,
		Sessions:      st.sessions,
		Users:         st.users,
		Hasher:        hasher,
		Cookies:       auth.NewCookies(auth.CookieConfig{Secure: c.SecureCookies, Domain: c.CookieDomain}, clock.System),
		Clock:         clock.System,
		AccessTTL:     c.AccessTTL,
		RefreshTTL:    c.RefreshTTL,
		SessionTTL:    c.SessionTTL,
		RotateRefresh: c.RotateRefresh,
	})
	postSvc := server.NewPostService(st.posts, st.users, clock.System)

	srv := server.NewServer(authSvc, postSvc, auth.NewAuthenticator(codec, st.sessions, st.users))
	srv.TrustProxy = c.TrustProxy

	handler, err := c.protect(srv.Handler(log, interceptors...))
	if err != nil {
		return err
	}

	return c.listen(ctx, log, configureHTTPServer(c.Listen, handler))
}

// protect adds CORS for the configured origins and rejects cross-origin writes from anywhere else.
func (c *ServeCmd) protect(h http.Handler) (http.Handler, error) {
	protection := csrf.New()
	for _, origin := range c.Origins {
		if err := protection.AddTrustedOrigin(origin); err != nil {
			return nil, fmt.Errorf("invalid origin %q: %w", origin, err)
		}
	}

	return withCORS(c.Origins, protection.Handler(h)), nil
}

func (c *ServeCmd) listen(ctx context.Context, log zerolog.Logger, httpServer *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		if c.Cert != "" {
			if _, err := os.Stat(c.Cert); err != nil {
				errc <- fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
				return
			}
			log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
			errc <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// withCORS adds CORS support to a Connect HTTP handler.
func withCORS(allowedOrigins []string, h http.Handler) http.Handler {
	middleware := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   connectcors.AllowedMethods(),
		AllowedHeaders:   append(connectcors.AllowedHeaders(), "Authorization"),
		ExposedHeaders:   append(connectcors.ExposedHeaders(), auth.ErrorKindHeader),
		AllowCredentials: true, // Required for cookie-based authentication
	})
	return middleware.Handler(h)
}
