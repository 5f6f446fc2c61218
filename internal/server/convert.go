package server

import (
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/models"
)

func toAPIUser(p *models.Principal) *api.User {
	return &api.User{
		ID:        p.PrincipalID.String(),
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role,
		Photo:     p.Photo,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toAPIPost(p *models.Post, author *models.Principal) *api.Post {
	out := &api.Post{
		ID:        p.PostID.String(),
		Title:     p.Title,
		Content:   p.Content,
		Category:  p.Category,
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if author != nil {
		out.Author = &api.PostAuthor{
			ID:    author.PrincipalID.String(),
			Name:  author.Name,
			Email: author.Email,
			Photo: author.Photo,
		}
	}
	return out
}
