package auth

import (
	"net/http"
	"time"

	"github.com/wolfeidau/sessionauth/internal/clock"
)

// Cookie names set by the auth service.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
	LoggedInCookie     = "logged_in" // readable by client code, never trusted for authorization
)

// CookieConfig controls the attributes shared by all three cookies.
type CookieConfig struct {
	Secure bool   // set in production, requires HTTPS
	Domain string // optional
	Path   string // defaults to "/"
}

// Cookies writes the access_token, refresh_token and logged_in cookie triple.
type Cookies struct {
	cfg   CookieConfig
	clock clock.Clock
}

// NewCookies creates a cookie writer.
func NewCookies(cfg CookieConfig, c clock.Clock) *Cookies {
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	if c == nil {
		c = clock.System
	}
	return &Cookies{cfg: cfg, clock: c}
}

// SetLogin sets all three cookies after a successful login.
func (c *Cookies) SetLogin(h http.Header, accessToken, refreshToken string, accessTTL, refreshTTL time.Duration) {
	c.SetAccess(h, accessToken, accessTTL)
	c.SetRefresh(h, refreshToken, refreshTTL)
}

// SetAccess sets the access_token and logged_in cookies.
func (c *Cookies) SetAccess(h http.Header, accessToken string, accessTTL time.Duration) {
	c.add(h, c.cookie(AccessTokenCookie, accessToken, accessTTL, true))
	c.add(h, c.cookie(LoggedInCookie, "true", accessTTL, false))
}

// SetRefresh sets the refresh_token cookie.
func (c *Cookies) SetRefresh(h http.Header, refreshToken string, refreshTTL time.Duration) {
	c.add(h, c.cookie(RefreshTokenCookie, refreshToken, refreshTTL, true))
}

// Clear expires all three cookies.
func (c *Cookies) Clear(h http.Header) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie, LoggedInCookie} {
		c.add(h, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     c.cfg.Path,
			Domain:   c.cfg.Domain,
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: name != LoggedInCookie,
			Secure:   c.cfg.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

func (c *Cookies) cookie(name, value string, ttl time.Duration, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		Expires:  c.clock.Now().Add(ttl),
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: httpOnly,
		Secure:   c.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c *Cookies) add(h http.Header, cookie *http.Cookie) {
	if v := cookie.String(); v != "" {
		h.Add("Set-Cookie", v)
	}
}

// CookieValue returns the value of the named request cookie, or "" if absent.
func CookieValue(h http.Header, name string) string {
	r := &http.Request{Header: h}
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
