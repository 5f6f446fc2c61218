// Package cookies persists the CLI's session cookies between invocations.
package cookies

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Entry is one stored cookie.
type Entry struct {
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path,omitempty"`
	Expires  time.Time     `json:"expires,omitzero"`
	Secure   bool          `json:"secure,omitempty"`
	HttpOnly bool          `json:"http_only,omitempty"`
	SameSite http.SameSite `json:"same_site,omitempty"`
}

func (e Entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !now.Before(e.Expires)
}

// file is the on-disk layout, cookies grouped by server origin.
type file struct {
	Version int                         `json:"version"`
	Origins map[string]map[string]Entry `json:"origins"`
}

// Jar is an http.CookieJar backed by a JSON file. Cookies are scoped to the
// origin that set them and expire on the jar's clock. They are held in memory
// until Save is called.
type Jar struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	origins map[string]map[string]Entry
}

// Option configures a Jar.
type Option func(*Jar)

// WithClock sets the time source used for cookie expiry.
func WithClock(now func() time.Time) Option {
	return func(j *Jar) {
		if now != nil {
			j.now = now
		}
	}
}

// DefaultPath returns ~/.sessionauth/cookies.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".sessionauth", "cookies.json"), nil
}

// Open loads the jar at path, or DefaultPath when path is empty. A missing
// file yields an empty jar.
func Open(path string, opts ...Option) (*Jar, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	j := &Jar{
		path:    path,
		now:     time.Now,
		origins: make(map[string]map[string]Entry),
	}
	for _, opt := range opts {
		opt(j)
	}

	if err := j.load(); err != nil {
		return nil, err
	}

	log.Debug().Str("path", path).Msg("cookie jar opened")

	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	origin := originOf(u)
	entries := j.origins[origin]
	if entries == nil {
		entries = make(map[string]Entry)
		j.origins[origin] = entries
	}

	now := j.now()
	for _, c := range cookies {
		entry := Entry{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			SameSite: c.SameSite,
		}
		if entry.Path == "" || entry.Path[0] != '/' {
			entry.Path = "/"
		}
		if c.MaxAge > 0 {
			entry.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}

		if c.MaxAge < 0 || entry.expired(now) {
			delete(entries, c.Name)
			continue
		}
		entries[c.Name] = entry
	}
}

// Cookies implements http.CookieJar. Secure cookies are only sent over https.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	requestPath := u.EscapedPath()
	if requestPath == "" {
		requestPath = "/"
	}

	var out []*http.Cookie
	for _, e := range j.origins[originOf(u)] {
		if e.expired(now) || (e.Secure && u.Scheme != "https") || !pathMatch(requestPath, e.Path) {
			continue
		}
		out = append(out, &http.Cookie{Name: e.Name, Value: e.Value})
	}

	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Save writes unexpired cookies to disk atomically with 0600 permissions.
func (j *Jar) Save() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	out := file{Version: 1, Origins: make(map[string]map[string]Entry)}
	for origin, entries := range j.origins {
		kept := make(map[string]Entry)
		for name, e := range entries {
			if !e.expired(now) {
				kept[name] = e
			}
		}
		if len(kept) > 0 {
			out.Origins[origin] = kept
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(j.path), 0700); err != nil {
		return fmt.Errorf("failed to create cookie directory: %w", err)
	}

	tempPath := j.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookies: %w", err)
	}

	if err := os.Rename(tempPath, j.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save cookies: %w", err)
	}

	return nil
}

func (j *Jar) load() error {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read cookies: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse cookies: %w", err)
	}

	now := j.now()
	for origin, entries := range f.Origins {
		if _, err := url.Parse(origin); err != nil {
			log.Warn().Str("origin", origin).Msg("skipping cookies for unparseable origin")
			continue
		}

		kept := make(map[string]Entry)
		for name, e := range entries {
			if !e.expired(now) {
				kept[name] = e
			}
		}
		j.origins[origin] = kept
	}

	return nil
}

// pathMatch reports whether a cookie with cookiePath applies to requestPath.
func pathMatch(requestPath, cookiePath string) bool {
	if cookiePath == "/" || requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

func originOf(u *url.URL) string {
	return (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
}
