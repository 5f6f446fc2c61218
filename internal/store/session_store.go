package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionauth/internal/models"
)

// Sentinel errors for session store operations
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidSessionTTL = errors.New("session ttl must be greater than 0")
)

// SessionStore maps a principal ID to its single live session.
// Expiry is passive: once the TTL elapses, Get behaves exactly as if Delete had been called.
type SessionStore interface {
	// Put overwrites any existing session for principalID and resets its TTL.
	Put(ctx context.Context, principalID uuid.UUID, session *models.Session, ttl time.Duration) error

	// Get retrieves the live session for principalID.
	// Returns ErrSessionNotFound if there is no session or it has expired.
	Get(ctx context.Context, principalID uuid.UUID) (*models.Session, error)

	// Delete removes the session for principalID. It is a no-op if absent.
	Delete(ctx context.Context, principalID uuid.UUID) error
}
