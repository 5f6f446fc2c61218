package auth

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

var _ connect.Interceptor = (*Interceptor)(nil)

// Interceptor authenticates every inbound RPC and stores the RequestContext in
// the handler context. It never rejects a call for being anonymous; protected
// handlers call RequirePrincipal.
type Interceptor struct {
	authn *Authenticator
}

// NewInterceptor creates a connect interceptor around authn.
func NewInterceptor(authn *Authenticator) *Interceptor {
	return &Interceptor{authn: authn}
}

func (i *Interceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if req.Spec().IsClient {
			return next(ctx, req)
		}

		ctx, err := i.authenticate(ctx, req.Header())
		if err != nil {
			return nil, err
		}

		return next(ctx, req)
	}
}

func (i *Interceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *Interceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		ctx, err := i.authenticate(ctx, conn.RequestHeader())
		if err != nil {
			return err
		}

		return next(ctx, conn)
	}
}

func (i *Interceptor) authenticate(ctx context.Context, h http.Header) (context.Context, error) {
	rc, err := i.authn.Authenticate(ctx, h)
	if err != nil {
		return ctx, Internal(ctx, err, "Failed to authenticate request")
	}

	if rc.Authenticated() {
		ctx = zerolog.Ctx(ctx).With().
			Str("principal_id", rc.Principal.PrincipalID.String()).
			Str("session_id", rc.SessionID.String()).
			Logger().WithContext(ctx)
	}

	return WithRequestContext(ctx, rc), nil
}
