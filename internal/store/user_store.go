package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/sessionauth/internal/models"
)

// Sentinel errors for user store operations
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserStore persists registered users.
type UserStore interface {
	// Create stores a new user.
	// Returns ErrUserAlreadyExists if the ID or email is already taken.
	Create(ctx context.Context, user *models.User) error

	// Get retrieves a user by ID.
	// Returns ErrUserNotFound if the user doesn't exist.
	Get(ctx context.Context, principalID uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by normalised email address.
	// Returns ErrUserNotFound if the user doesn't exist.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
