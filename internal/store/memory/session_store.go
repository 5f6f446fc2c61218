package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionauth/internal/clock"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
)

// SessionStore implements store.SessionStore using in-memory storage.
// This implementation is for testing and single-process development only - data is lost on restart.
type SessionStore struct {
	mu    sync.Mutex
	clock clock.Clock

	sessions map[uuid.UUID]entry // principal_id -> session
}

type entry struct {
	session   models.Session
	expiresAt time.Time
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore(c clock.Clock) *SessionStore {
	if c == nil {
		c = clock.System
	}

	return &SessionStore{
		clock:    c,
		sessions: make(map[uuid.UUID]entry),
	}
}

// Put overwrites the session for a principal and resets its TTL.
func (s *SessionStore) Put(ctx context.Context, principalID uuid.UUID, session *models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return store.ErrInvalidSessionTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Clone to avoid external modifications
	s.sessions[principalID] = entry{
		session:   *session,
		expiresAt: s.clock.Now().Add(ttl),
	}

	return nil
}

// Get retrieves the live session for a principal.
func (s *SessionStore) Get(ctx context.Context, principalID uuid.UUID) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.sessions[principalID]
	if !exists {
		return nil, store.ErrSessionNotFound
	}

	if !s.clock.Now().Before(e.expiresAt) {
		delete(s.sessions, principalID)
		return nil, store.ErrSessionNotFound
	}

	clone := e.session
	return &clone, nil
}

// Delete removes the session for a principal.
func (s *SessionStore) Delete(ctx context.Context, principalID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, principalID)
	return nil
}
