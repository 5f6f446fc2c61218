package store

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionauth/internal/models"
)

// Sentinel errors for post store operations
var (
	ErrPostNotFound      = errors.New("post not found")
	ErrPostAlreadyExists = errors.New("post already exists")
)

// PostStore persists posts.
type PostStore interface {
	// Create stores a new post.
	// Returns ErrPostAlreadyExists if the title is already taken.
	Create(ctx context.Context, post *models.Post) error

	// Get retrieves a post by ID.
	// Returns ErrPostNotFound if the post doesn't exist.
	Get(ctx context.Context, postID uuid.UUID) (*models.Post, error)

	// List returns a page of posts, newest first.
	List(ctx context.Context, opts ListPostsOptions) ([]*models.Post, error)

	// Update applies a partial update and returns the updated post.
	// Returns ErrPostNotFound if the post doesn't exist, or ErrPostAlreadyExists
	// if the new title is already taken.
	Update(ctx context.Context, postID uuid.UUID, update models.PostUpdate, updatedAt time.Time) (*models.Post, error)

	// Delete removes a post.
	// Returns ErrPostNotFound if the post doesn't exist.
	Delete(ctx context.Context, postID uuid.UUID) error
}

// ListPostsOptions specifies paging for listing posts.
type ListPostsOptions struct {
	Limit int // Max results (0 = DefaultPostLimit, capped at MaxPostLimit)
	Page  int // 1-based page number (0 = 1)
}

const (
	// DefaultPostLimit is the page size used when none is given.
	DefaultPostLimit = 10
	// MaxPostLimit caps the page size.
	MaxPostLimit = 100

	maxPostOffset = math.MaxInt32
)

// Normalize applies defaults and bounds, and returns the row offset for the page.
// Pages past the largest supported offset are clamped to it.
func (o *ListPostsOptions) Normalize() int {
	switch {
	case o.Limit <= 0:
		o.Limit = DefaultPostLimit
	case o.Limit > MaxPostLimit:
		o.Limit = MaxPostLimit
	}
	if o.Page <= 0 {
		o.Page = 1
	}
	if maxPage := maxPostOffset/o.Limit + 1; o.Page > maxPage {
		o.Page = maxPage
	}
	return (o.Page - 1) * o.Limit
}
