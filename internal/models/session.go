package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record backing a login. There is at most one live
// session per principal; a new login overwrites it.
type Session struct {
	SessionID   uuid.UUID `json:"session_id"` // UUIDv7, carried as the sid claim in both tokens
	PrincipalID uuid.UUID `json:"principal_id"`
	RefreshID   string    `json:"refresh_id"` // jti of the current refresh token

	// Principal is a snapshot taken when the session was last written.
	Principal Principal `json:"principal"`

	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// Optional audit metadata
	UserAgent string `json:"user_agent,omitempty"`
	IPAddress string `json:"ip_address,omitempty"`
}

// IsExpired returns true if the session has expired at now.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
