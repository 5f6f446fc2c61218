package server

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/auth"
	"github.com/wolfeidau/sessionauth/internal/clock"
	"github.com/wolfeidau/sessionauth/internal/models"
	"github.com/wolfeidau/sessionauth/internal/store"
)

// Post service messages.
const (
	MsgPostTitleExists = "Post with that title already exists"
	MsgPostNotFound    = "Post with that ID not found"
)

var _ api.PostServiceHandler = (*PostService)(nil)

// PostService implements post CRUD. Reads are public; writes require a principal.
type PostService struct {
	posts store.PostStore
	users store.UserStore
	clock clock.Clock
}

// NewPostService creates a PostService.
func NewPostService(posts store.PostStore, users store.UserStore, c clock.Clock) *PostService {
	if c == nil {
		c = clock.System
	}
	return &PostService{
		posts: posts,
		users: users,
		clock: c,
	}
}

func (s *PostService) CreatePost(
	ctx context.Context,
	req *connect.Request[api.CreatePostRequest],
) (*connect.Response[api.CreatePostResponse], error) {
	principal, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if err := validatePost(req.Msg.Title, req.Msg.Content, req.Msg.Category); err != nil {
		return nil, err
	}

	postID, err := uuid.NewV7()
	if err != nil {
		return nil, auth.Internal(ctx, err, "Failed to generate post ID")
	}

	image := req.Msg.Image
	if image == "" {
		image = models.DefaultPostImage
	}

	now := s.clock.Now()
	post := &models.Post{
		PostID:    postID,
		Title:     req.Msg.Title,
		Content:   req.Msg.Content,
		Category:  req.Msg.Category,
		Image:     image,
		AuthorID:  principal.PrincipalID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if errors.Is(err, store.ErrPostAlreadyExists) {
			return nil, auth.NewError(auth.KindConflict, MsgPostTitleExists)
		}
		return nil, auth.Internal(ctx, err, "Failed to create post")
	}

	zerolog.Ctx(ctx).Info().Str("post_id", postID.String()).Msg("Post created")

	return connect.NewResponse(&api.CreatePostResponse{
		Status: api.StatusSuccess,
		Post:   toAPIPost(post, principal),
	}), nil
}

func (s *PostService) GetPost(
	ctx context.Context,
	req *connect.Request[api.GetPostRequest],
) (*connect.Response[api.GetPostResponse], error) {
	post, err := s.lookup(ctx, req.Msg.PostID)
	if err != nil {
		return nil, err
	}

	author, err := s.author(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetPostResponse{
		Status: api.StatusSuccess,
		Post:   toAPIPost(post, author),
	}), nil
}

func (s *PostService) GetPosts(
	ctx context.Context,
	req *connect.Request[api.GetPostsRequest],
) (*connect.Response[api.GetPostsResponse], error) {
	posts, err := s.posts.List(ctx, store.ListPostsOptions{
		Limit: req.Msg.Limit,
		Page:  req.Msg.Page,
	})
	if err != nil {
		return nil, auth.Internal(ctx, err, "Failed to list posts")
	}

	authors := make(map[uuid.UUID]*models.Principal)
	out := make([]*api.Post, 0, len(posts))
	for _, post := range posts {
		author, seen := authors[post.AuthorID]
		if !seen {
			author, err = s.author(ctx, post.AuthorID)
			if err != nil {
				return nil, err
			}
			authors[post.AuthorID] = author
		}
		out = append(out, toAPIPost(post, author))
	}

	return connect.NewResponse(&api.GetPostsResponse{
		Status:  api.StatusSuccess,
		Results: len(out),
		Posts:   out,
	}), nil
}

func (s *PostService) UpdatePost(
	ctx context.Context,
	req *connect.Request[api.UpdatePostRequest],
) (*connect.Response[api.UpdatePostResponse], error) {
	if _, err := auth.RequirePrincipal(ctx); err != nil {
		return nil, err
	}

	postID, err := uuid.Parse(req.Msg.PostID)
	if err != nil {
		return nil, auth.NewError(auth.KindNotFound, MsgPostNotFound)
	}

	update := models.PostUpdate{
		Title:    req.Msg.Title,
		Content:  req.Msg.Content,
		Category: req.Msg.Category,
		Image:    req.Msg.Image,
	}
	if update.Title != nil && *update.Title == "" {
		return nil, auth.NewError(auth.KindInvalidArgument, "Title is required")
	}

	post, err := s.posts.Update(ctx, postID, update, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPostNotFound):
			return nil, auth.NewError(auth.KindNotFound, MsgPostNotFound)
		case errors.Is(err, store.ErrPostAlreadyExists):
			return nil, auth.NewError(auth.KindConflict, MsgPostTitleExists)
		}
		return nil, auth.Internal(ctx, err, "Failed to update post")
	}

	author, err := s.author(ctx, post.AuthorID)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.UpdatePostResponse{
		Status: api.StatusSuccess,
		Post:   toAPIPost(post, author),
	}), nil
}

func (s *PostService) DeletePost(
	ctx context.Context,
	req *connect.Request[api.DeletePostRequest],
) (*connect.Response[api.DeletePostResponse], error) {
	if _, err := auth.RequirePrincipal(ctx); err != nil {
		return nil, err
	}

	postID, err := uuid.Parse(req.Msg.PostID)
	if err != nil {
		return nil, auth.NewError(auth.KindNotFound, MsgPostNotFound)
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			return nil, auth.NewError(auth.KindNotFound, MsgPostNotFound)
		}
		return nil, auth.Internal(ctx, err, "Failed to delete post")
	}

	zerolog.Ctx(ctx).Info().Str("post_id", postID.String()).Msg("Post deleted")

	return connect.NewResponse(&api.DeletePostResponse{Status: api.StatusSuccess}), nil
}

func (s *PostService) lookup(ctx context.Context, id string) (*models.Post, error) {
	postID, err := uuid.Parse(id)
	if err != nil {
		return nil, auth.NewError(auth.KindNotFound, MsgPostNotFound)
	}

	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			return nil, auth.NewError(auth.KindNotFound, MsgPostNotFound)
		}
		return nil, auth.Internal(ctx, err, "Failed to get post")
	}

	return post, nil
}

// author returns nil for a deleted author; the post is still shown.
func (s *PostService) author(ctx context.Context, id uuid.UUID) (*models.Principal, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, nil
		}
		return nil, auth.Internal(ctx, err, "Failed to get post author")
	}
	return user.ToPrincipal(), nil
}
