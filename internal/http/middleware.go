package http

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type contextKey string

const requestMetaContextKey contextKey = "request_meta"

// RequestMeta is the audit information recorded against a session at login.
type RequestMeta struct {
	ClientIP  string
	UserAgent string
}

// ExtractClientIP extracts the client IP address from the request.
// When trustProxy is set X-Forwarded-For is checked first, then X-Real-IP,
// finally RemoteAddr. Values that do not parse as an IP are ignored.
func ExtractClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := parseIP(first); ip != "" {
				return ip
			}
		}

		if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return parseIP(host)
}

func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// RequestMetaFromContext returns the metadata stored by RequestMetaMiddleware,
// or the zero value when the handler was not wrapped.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaContextKey).(RequestMeta)
	return meta
}

// ClientIPFromContext extracts the client IP from the request context.
func ClientIPFromContext(ctx context.Context) string {
	return RequestMetaFromContext(ctx).ClientIP
}

// RequestMetaMiddleware stores the client IP and user agent in the request context.
func RequestMetaMiddleware(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := RequestMeta{
				ClientIP:  ExtractClientIP(r, trustProxy),
				UserAgent: r.UserAgent(),
			}
			ctx := context.WithValue(r.Context(), requestMetaContextKey, meta)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
