package api

import "time"

// PostAuthor is the subset of the author's profile embedded in a post.
type PostAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
}

type Post struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Category  string      `json:"category"`
	Image     string      `json:"image"`
	Author    *PostAuthor `json:"user,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type CreatePostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Image    string `json:"image,omitempty"`
}

type CreatePostResponse struct {
	Status string `json:"status"`
	Post   *Post  `json:"post"`
}

type GetPostRequest struct {
	PostID string `json:"postId"`
}

type GetPostResponse struct {
	Status string `json:"status"`
	Post   *Post  `json:"post"`
}

type GetPostsRequest struct {
	Limit int `json:"limit,omitempty"`
	Page  int `json:"page,omitempty"`
}

type GetPostsResponse struct {
	Status  string  `json:"status"`
	Results int     `json:"results"`
	Posts   []*Post `json:"posts"`
}

// UpdatePostRequest carries a partial update; nil fields are left unchanged.
type UpdatePostRequest struct {
	PostID   string  `json:"postId"`
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Category *string `json:"category,omitempty"`
	Image    *string `json:"image,omitempty"`
}

type UpdatePostResponse struct {
	Status string `json:"status"`
	Post   *Post  `json:"post"`
}

type DeletePostRequest struct {
	PostID string `json:"postId"`
}

type DeletePostResponse struct {
	Status string `json:"status"`
}
