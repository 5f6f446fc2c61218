// Package redis implements store.SessionStore on Redis. Each session is a JSON
// value written with SET EX, so expiry is handled by Redis itself.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
)

// ErrRedisUnavailable wraps any error returned by the Redis client.
var ErrRedisUnavailable = errors.New("redis unavailable")

// DefaultKeyPrefix namespaces session keys.
const DefaultKeyPrefix = "sessionauth:session"

// SessionStore implements store.SessionStore using Redis.
type SessionStore struct {
	rdb    goredis.UniversalClient
	prefix string
}

// NewSessionStore creates a Redis-backed session store on an existing client.
// An empty prefix selects DefaultKeyPrefix.
func NewSessionStore(rdb goredis.UniversalClient, prefix string) *SessionStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}

	return &SessionStore{
		rdb:    rdb,
		prefix: prefix,
	}
}

// NewClient creates a client from a URL such as redis://:pass@host:6379/0 and
// pings it so misconfiguration fails at startup.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opt, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return rdb, nil
}

func (s *SessionStore) key(principalID uuid.UUID) string {
	return s.prefix + ":" + principalID.String()
}

// Put overwrites the session for a principal and resets its TTL.
func (s *SessionStore) Put(ctx context.Context, principalID uuid.UUID, session *models.Session, ttl time.Duration) error {
	if ttl <= 0 {
		return store.ErrInvalidSessionTTL
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := s.rdb.Set(ctx, s.key(principalID), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	log.Ctx(ctx).Debug().
		Str("principal_id", principalID.String()).
		Str("session_id", session.SessionID.String()).
		Dur("ttl", ttl).
		Msg("Stored session")

	return nil
}

// Get retrieves the live session for a principal.
func (s *SessionStore) Get(ctx context.Context, principalID uuid.UUID) (*models.Session, error) {
	data, err := s.rdb.Get(ctx, s.key(principalID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var session models.Session
	if err := json.Unmarshal(data, &session); err != nil {
		// a snapshot we cannot decode never authenticates anyone
		log.Ctx(ctx).Warn().Err(err).Str("principal_id", principalID.String()).Msg("Discarding corrupt session")
		return nil, store.ErrSessionNotFound
	}

	if session.PrincipalID != principalID {
		return nil, store.ErrSessionNotFound
	}

	return &session, nil
}

// Delete removes the session for a principal.
func (s *SessionStore) Delete(ctx context.Context, principalID uuid.UUID) error {
	if err := s.rdb.Del(ctx, s.key(principalID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}
