package client

import (
	"net/http"
	"net/url"
	"time"

	"connectrpc.com/connect"
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/auth"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Debug     bool
}

// Clients holds the connect clients, sharing one cookie-carrying HTTP client
type Clients struct {
	Auth  api.AuthServiceClient
	Posts api.PostServiceClient

	http *http.Client
	base *url.URL
}

// NewClients creates new connect clients with the given configuration. The jar
// holds the session cookies and may be nil for header-only use.
func NewClients(config Config, jar http.CookieJar, opts ...connect.ClientOption) (*Clients, error) {
	base, err := url.Parse(config.ServerURL)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Jar:     jar,
	}

	return &Clients{
		Auth:  api.NewAuthServiceClient(httpClient, config.ServerURL, opts...),
		Posts: api.NewPostServiceClient(httpClient, config.ServerURL, opts...),
		http:  httpClient,
		base:  base,
	}, nil
}

// LoggedIn reports whether the jar holds the logged_in hint cookie for the server.
// The hint only decides whether a session check is worth making.
func (c *Clients) LoggedIn() bool {
	if c.http.Jar == nil {
		return false
	}
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == auth.LoggedInCookie && cookie.Value == "true" {
			return true
		}
	}
	return false
}

// HasSession reports whether the jar holds the logged_in hint or a refresh
// token. A refresh token outlives the hint, so a client that can read it
// should check the session even after the hint has expired.
func (c *Clients) HasSession() bool {
	if c.http.Jar == nil {
		return false
	}
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		switch {
		case cookie.Name == auth.LoggedInCookie && cookie.Value == "true":
			return true
		case cookie.Name == auth.RefreshTokenCookie && cookie.Value != "":
			return true
		}
	}
	return false
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
		Debug:     false,
	}
}
