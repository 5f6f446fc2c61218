package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles assigned to principals.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Principal is the authenticated subject of a request. It never carries the
// password hash and is the only user shape that leaves the server.
type Principal struct {
	PrincipalID uuid.UUID `json:"id"` // UUIDv7
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	Photo       string    `json:"photo"` // avatar reference

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// User is a stored principal together with its password hash.
type User struct {
	Principal
	PasswordHash string `json:"-"`
}

// ToPrincipal strips the secret from a user.
func (u *User) ToPrincipal() *Principal {
	p := u.Principal
	return &p
}
