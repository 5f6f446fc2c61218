package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionauth/internal/clock"
	"github.com/wolfeidau/sessionauth/internal/store"
	memorystore "github.com/wolfeidau/sessionauth/internal/store/memory"
	postgresstore "github.com/wolfeidau/sessionauth/internal/store/postgres"
	redisstore "github.com/wolfeidau/sessionauth/internal/store/redis"
)

type RedisFlags struct {
	URL            string        `help:"Redis URL" default:"redis://localhost:6379/0" env:"SESSIONAUTH_REDIS_URL"`
	KeyPrefix      string        `help:"prefix for session keys" default:"sessionauth:session"`
	StartupTimeout time.Duration `help:"how long to retry connecting at startup" default:"30s"`
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"SESSIONAUTH_POSTGRES_AUTO_MIGRATE"`

	// SweepInterval controls how often expired session rows are deleted.
	SweepInterval time.Duration `help:"expired session sweep interval" default:"5m"`
}

func (s *PostgresStoreFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	if s.SweepInterval <= 0 {
		return errors.New("postgres sweep interval must be positive (--postgres-sweep-interval)")
	}
	if s.MinConns > s.MaxConns {
		return fmt.Errorf("postgres min conns (%d) must not exceed max conns (%d)", s.MinConns, s.MaxConns)
	}
	return nil
}

// stores holds the backends selected by flags and how to release them.
type stores struct {
	sessions store.SessionStore
	users    store.UserStore
	posts    store.PostStore
	closers  []func()
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (c *ServeCmd) openStores(ctx context.Context, clk clock.Clock) (*stores, error) {
	st := &stores{}

	var pool *pgxpool.Pool
	if c.SessionStore == "postgres" || c.DataStore == "postgres" {
		var err error
		pool, err = c.openPostgres(ctx)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)
	}

	switch c.DataStore {
	case "postgres":
		st.users = postgresstore.NewUserStore(pool)
		st.posts = postgresstore.NewPostStore(pool)
		log.Info().Msg("Using PostgreSQL user and post stores")
	default:
		st.users = memorystore.NewUserStore()
		st.posts = memorystore.NewPostStore()
		log.Info().Msg("Using in-memory user and post stores")
	}

	switch c.SessionStore {
	case "redis":
		rdb, err := c.openRedis(ctx)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close redis client")
			}
		})
		st.sessions = redisstore.NewSessionStore(rdb, c.Redis.KeyPrefix)
		log.Info().Msg("Using Redis session store")
	case "postgres":
		sessions := postgresstore.NewSessionStore(pool, clk)
		sweepCtx, cancel := context.WithCancel(ctx)
		go sessions.RunSweeper(sweepCtx, c.Postgres.SweepInterval)
		st.closers = append(st.closers, cancel)
		st.sessions = sessions
		log.Info().Dur("sweep_interval", c.Postgres.SweepInterval).Msg("Using PostgreSQL session store")
	default:
		st.sessions = memorystore.NewSessionStore(clk)
		log.Info().Msg("Using in-memory session store")
	}

	return st, nil
}

func (c *ServeCmd) openPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
		ConnString:      c.Postgres.ConnString,
		MaxConns:        c.Postgres.MaxConns,
		MinConns:        c.Postgres.MinConns,
		MaxConnLifetime: c.Postgres.MaxConnLifetime,
		MaxConnIdleTime: c.Postgres.MaxConnIdleTime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if c.Postgres.AutoMigrate {
		if err := postgresstore.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("Database migrations completed")
	}

	return pool, nil
}

// openRedis retries the initial connection so the server can start alongside Redis.
func (c *ServeCmd) openRedis(ctx context.Context) (*goredis.Client, error) {
	rdb, err := backoff.Retry(ctx, func() (*goredis.Client, error) {
		rdb, err := redisstore.NewClient(ctx, c.Redis.URL)
		if err != nil && !errors.Is(err, redisstore.ErrRedisUnavailable) {
			return nil, backoff.Permanent(err)
		}
		return rdb, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(c.Redis.StartupTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Dur("retry_in", next).Msg("Redis not ready")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return rdb, nil
}
