package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionauth/internal/clock"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
)

// SessionStore implements store.SessionStore using PostgreSQL.
// Rows past expires_at are invisible to Get and removed by DeleteExpired.
type SessionStore struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

// NewSessionStore creates a new PostgreSQL-backed session store.
func NewSessionStore(pool *pgxpool.Pool, c clock.Clock) *SessionStore {
	if c == nil {
		c = clock.System
	}

	return &SessionStore{
		pool:  pool,
		clock: c,
	}
}

// Put upserts the session for a principal and resets its expiry.
func (s *SessionStore) Put(ctx context.Context, principalID uuid.UUID, session *models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return store.ErrInvalidSessionTTL
	}

	query := `
		INSERT INTO sessions (
			principal_id, session_id, refresh_id, snapshot,
			created_at, expires_at, user_agent, ip_address
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8::inet
		)
		ON CONFLICT (principal_id) DO UPDATE SET
			session_id = EXCLUDED.session_id,
			refresh_id = EXCLUDED.refresh_id,
			snapshot   = EXCLUDED.snapshot,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			user_agent = EXCLUDED.user_agent,
			ip_address = EXCLUDED.ip_address
	`

	// Convert empty IP address to nil for proper INET handling
	var ipAddress any
	if session.IPAddress != "" {
		ipAddress = session.IPAddress
	}

	_, err := s.pool.Exec(ctx, query,
		principalID,
		session.SessionID,
		session.RefreshID,
		session.Principal,
		session.CreatedAt,
		s.clock.Now().Add(ttl),
		session.UserAgent,
		ipAddress,
	)
	if err != nil {
		return fmt.Errorf("failed to put session: %w", mapPostgresError(err))
	}

	log.Ctx(ctx).Debug().
		Str("session_id", session.SessionID.String()).
		Str("principal_id", principalID.String()).
		Msg("Stored session")

	return nil
}

// Get retrieves the live session for a principal.
func (s *SessionStore) Get(ctx context.Context, principalID uuid.UUID) (*models.Session, error) {
	query := `
		SELECT
			principal_id, session_id, refresh_id, snapshot,
			created_at, expires_at, user_agent, COALESCE(host(ip_address), '')
		FROM sessions
		WHERE principal_id = $1 AND expires_at > $2
	`

	var session models.Session
	err := s.pool.QueryRow(ctx, query, principalID, s.clock.Now()).Scan(
		&session.PrincipalID,
		&session.SessionID,
		&session.RefreshID,
		&session.Principal,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.UserAgent,
		&session.IPAddress,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", mapPostgresError(err))
	}

	return &session, nil
}

// Delete removes the session for a principal. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, principalID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE principal_id = $1`, principalID); err != nil {
		return fmt.Errorf("failed to delete session: %w", mapPostgresError(err))
	}

	return nil
}

// DeleteExpired deletes all expired sessions (cleanup job).
func (s *SessionStore) DeleteExpired(ctx context.Context) (int, error) {
	result, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", mapPostgresError(err))
	}

	count := int(result.RowsAffected())

	if count > 0 {
		log.Info().
			Int("count", count).
			Msg("Deleted expired sessions")
	}

	return count, nil
}

// RunSweeper calls DeleteExpired every interval until ctx is done.
func (s *SessionStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DeleteExpired(ctx); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Msg("Failed to sweep expired sessions")
			}
		}
	}
}
