package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultPostImage is used when a post is created without an image.
const DefaultPostImage = "default-post.png"

// Post is a piece of content authored by a principal.
type Post struct {
	PostID   uuid.UUID `json:"id"` // UUIDv7
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Category string    `json:"category"`
	Image    string    `json:"image"`
	AuthorID uuid.UUID `json:"author_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostUpdate holds the optional fields of a partial post update.
type PostUpdate struct {
	Title    *string
	Content  *string
	Category *string
	Image    *string
}

// Apply copies the set fields of u onto p.
func (u PostUpdate) Apply(p *Post) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
}
