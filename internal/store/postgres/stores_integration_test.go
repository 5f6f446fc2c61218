//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/wolfeidau/sessionauth/internal/clock"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) *pgxpool.Pool {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pool, err := NewPool(ctx, &PoolConfig{
		ConnString: fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))
	// second run is a no-op
	require.NoError(t, RunMigrations(ctx, pool))

	return pool
}

func TestIntegration_Stores(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgresContainer(t, ctx)

	now := time.Now().UTC().Truncate(time.Microsecond)
	fake := clock.NewFake(now)

	users := NewUserStore(pool)
	posts := NewPostStore(pool)
	sessions := NewSessionStore(pool, fake)

	user := &models.User{
		Principal: models.Principal{
			PrincipalID: uuid.Must(uuid.NewV7()),
			Name:        "Alice",
			Email:       "Alice@X.com",
			Role:        models.RoleUser,
			Photo:       "default.png",
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		PasswordHash: "hash",
	}

	t.Run("users", func(t *testing.T) {
		require.NoError(t, users.Create(ctx, user))

		dup := *user
		dup.PrincipalID = uuid.Must(uuid.NewV7())
		require.ErrorIs(t, users.Create(ctx, &dup), store.ErrUserAlreadyExists)

		got, err := users.GetByEmail(ctx, "alice@x.com")
		require.NoError(t, err)
		require.Equal(t, user.PrincipalID, got.PrincipalID)
		require.Equal(t, "alice@x.com", got.Email)
		require.Equal(t, "hash", got.PasswordHash)

		_, err = users.Get(ctx, uuid.Must(uuid.NewV7()))
		require.ErrorIs(t, err, store.ErrUserNotFound)
	})

	t.Run("sessions", func(t *testing.T) {
		session := &models.Session{
			SessionID:   uuid.Must(uuid.NewV7()),
			PrincipalID: user.PrincipalID,
			RefreshID:   "jti-1",
			Principal:   *user.ToPrincipal(),
			CreatedAt:   now,
			IPAddress:   "10.0.0.1",
			UserAgent:   "integration",
		}

		require.ErrorIs(t, sessions.Put(ctx, user.PrincipalID, session, 0), store.ErrInvalidSessionTTL)
		require.NoError(t, sessions.Put(ctx, user.PrincipalID, session, time.Hour))

		got, err := sessions.Get(ctx, user.PrincipalID)
		require.NoError(t, err)
		require.Equal(t, session.SessionID, got.SessionID)
		require.Equal(t, "10.0.0.1", got.IPAddress)
		require.Equal(t, user.Name, got.Principal.Name)

		// overwrite with a new login
		session.SessionID = uuid.Must(uuid.NewV7())
		require.NoError(t, sessions.Put(ctx, user.PrincipalID, session, time.Hour))
		got, err = sessions.Get(ctx, user.PrincipalID)
		require.NoError(t, err)
		require.Equal(t, session.SessionID, got.SessionID)

		fake.Advance(time.Hour)
		_, err = sessions.Get(ctx, user.PrincipalID)
		require.ErrorIs(t, err, store.ErrSessionNotFound)

		count, err := sessions.DeleteExpired(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)

		require.NoError(t, sessions.Delete(ctx, user.PrincipalID))
	})

	t.Run("posts", func(t *testing.T) {
		post := &models.Post{
			PostID:    uuid.Must(uuid.NewV7()),
			Title:     "hello",
			Content:   "world",
			Category:  "general",
			Image:     models.DefaultPostImage,
			AuthorID:  user.PrincipalID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, posts.Create(ctx, post))

		dup := *post
		dup.PostID = uuid.Must(uuid.NewV7())
		require.ErrorIs(t, posts.Create(ctx, &dup), store.ErrPostAlreadyExists)

		content := "updated"
		updated, err := posts.Update(ctx, post.PostID, models.PostUpdate{Content: &content}, now.Add(time.Minute))
		require.NoError(t, err)
		require.Equal(t, "hello", updated.Title)
		require.Equal(t, "updated", updated.Content)

		list, err := posts.List(ctx, store.ListPostsOptions{})
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, posts.Delete(ctx, post.PostID))
		require.ErrorIs(t, posts.Delete(ctx, post.PostID), store.ErrPostNotFound)

		_, err = posts.Update(ctx, post.PostID, models.PostUpdate{Content: &content}, now)
		require.ErrorIs(t, err, store.ErrPostNotFound)
	})
}
