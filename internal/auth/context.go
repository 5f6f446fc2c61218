package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionauth/internal/models"
)

// RequestContext is the outcome of authenticating one inbound request. It is
// either authenticated (Principal set) or anonymous.
type RequestContext struct {
	Principal *models.Principal
	SessionID uuid.UUID
}

// Anonymous is the RequestContext of an unauthenticated request.
var Anonymous = RequestContext{}

// Authenticated reports whether the request carried a valid access token backed by a live session.
func (rc RequestContext) Authenticated() bool {
	return rc.Principal != nil
}

type contextKey int

const (
	requestContextKey contextKey = iota
)

// WithRequestContext stores rc in ctx.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// FromContext extracts the RequestContext from ctx.
// Returns Anonymous if the request was never authenticated.
func FromContext(ctx context.Context) RequestContext {
	rc, ok := ctx.Value(requestContextKey).(RequestContext)
	if !ok {
		return Anonymous
	}
	return rc
}

// PrincipalFromContext extracts the authenticated principal from the request context.
// Returns nil if no principal is present (unauthenticated request).
func PrincipalFromContext(ctx context.Context) *models.Principal {
	return FromContext(ctx).Principal
}

// RequirePrincipal is called by protected operations. It returns a
// KindUnauthenticated error when the request is anonymous.
func RequirePrincipal(ctx context.Context) (*models.Principal, error) {
	principal := PrincipalFromContext(ctx)
	if principal == nil {
		return nil, NewError(KindUnauthenticated, MsgUnauthenticated)
	}
	return principal, nil
}
