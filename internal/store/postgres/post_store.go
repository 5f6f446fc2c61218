package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
)

const postColumns = `post_id, title, content, category, image, author_id, created_at, updated_at`

// PostStore implements store.PostStore using PostgreSQL.
type PostStore struct {
	pool *pgxpool.Pool
}

// NewPostStore creates a new PostgreSQL-backed post store.
func NewPostStore(pool *pgxpool.Pool) *PostStore {
	return &PostStore{pool: pool}
}

// Create inserts a new post.
func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	query := `INSERT INTO posts (` + postColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		post.PostID,
		post.Title,
		post.Content,
		post.Category,
		post.Image,
		post.AuthorID,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		err = mapPostgresError(err)
		if errors.Is(err, store.ErrPostAlreadyExists) {
			return err
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

// Get retrieves a post by ID.
func (s *PostStore) Get(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM posts WHERE post_id = $1`, postID)
	return scanPost(row)
}

// List returns a page of posts ordered newest first.
func (s *PostStore) List(ctx context.Context, opts store.ListPostsOptions) ([]*models.Post, error) {
	offset := opts.Normalize()

	rows, err := s.pool.Query(ctx, `
		SELECT `+postColumns+`
		FROM posts
		ORDER BY created_at DESC, post_id DESC
		LIMIT $1 OFFSET $2
	`, opts.Limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", mapPostgresError(err))
	}

	posts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Post, error) {
		return scanPost(row)
	})
	if err != nil {
		return nil, err
	}

	return posts, nil
}

// Update applies a partial update; unset fields keep their stored value.
func (s *PostStore) Update(ctx context.Context, postID uuid.UUID, update models.PostUpdate, updatedAt time.Time) (*models.Post, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE posts SET
			title      = COALESCE($2::text, title),
			content    = COALESCE($3::text, content),
			category   = COALESCE($4::text, category),
			image      = COALESCE($5::text, image),
			updated_at = $6
		WHERE post_id = $1
		RETURNING `+postColumns,
		postID, update.Title, update.Content, update.Category, update.Image, updatedAt,
	)

	return scanPost(row)
}

// Delete removes a post.
func (s *PostStore) Delete(ctx context.Context, postID uuid.UUID) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE post_id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrPostNotFound
	}

	return nil
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.PostID,
		&post.Title,
		&post.Content,
		&post.Category,
		&post.Image,
		&post.AuthorID,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrPostNotFound
		}
		err = mapPostgresError(err)
		if errors.Is(err, store.ErrPostAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	return &post, nil
}
