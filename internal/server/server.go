package server

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/auth"
	httpmiddleware "github.com/wolfeidau/sessionauth/internal/http"
	"github.com/wolfeidau/sessionauth/internal/logger"
)

// Server wraps the HTTP handlers for the auth and post services
type Server struct {
	authServer    *AuthService
	postServer    *PostService
	authenticator *auth.Authenticator

	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP.
	TrustProxy bool
}

// NewServer creates a new server from its services and the request authenticator
func NewServer(authServer *AuthService, postServer *PostService, authenticator *auth.Authenticator) *Server {
	return &Server{
		authServer:    authServer,
		postServer:    postServer,
		authenticator: authenticator,
	}
}

// Handler returns the HTTP handler for the server. Extra interceptors run
// between request logging and authentication.
func (s *Server) Handler(log zerolog.Logger, extra ...connect.Interceptor) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	interceptors := []connect.Interceptor{logger.NewConnectRequests(log)}
	interceptors = append(interceptors, extra...)
	interceptors = append(interceptors, auth.NewInterceptor(s.authenticator))
	opts := connect.WithInterceptors(interceptors...)

	authPath, authHandler := api.NewAuthServiceHandler(s.authServer, opts)
	mux.Handle(authPath, authHandler)

	postPath, postHandler := api.NewPostServiceHandler(s.postServer, opts)
	mux.Handle(postPath, postHandler)

	return httpmiddleware.RequestMetaMiddleware(s.TrustProxy)(mux)
}
