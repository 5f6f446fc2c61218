package commands

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/client"
)

type PostsCmd struct {
	List   PostsListCmd   `cmd:"" help:"List posts" default:"1"`
	Get    PostsGetCmd    `cmd:"" help:"Show a post"`
	Create PostsCreateCmd `cmd:"" help:"Create a post"`
	Update PostsUpdateCmd `cmd:"" help:"Update a post"`
	Delete PostsDeleteCmd `cmd:"" help:"Delete a post"`
}

type PostsListCmd struct {
	Limit int `help:"Posts per page" default:"10"`
	Page  int `help:"Page number" default:"1"`
}

func (p *PostsListCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		resp, err := s.clients.Posts.GetPosts(ctx, connect.NewRequest(&api.GetPostsRequest{
			Limit: p.Limit,
			Page:  p.Page,
		}))
		if err != nil {
			return fmt.Errorf("failed to list posts: %w", err)
		}

		if resp.Msg.Results == 0 {
			fmt.Fprintln(s.out, "No posts found.")
			return nil
		}
		return s.printYAML(resp.Msg.Posts)
	})
}

type PostsGetCmd struct {
	ID string `arg:"" help:"Post ID"`
}

func (p *PostsGetCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		resp, err := s.clients.Posts.GetPost(ctx, connect.NewRequest(&api.GetPostRequest{PostID: p.ID}))
		if err != nil {
			return fmt.Errorf("failed to get post: %w", err)
		}
		return s.printYAML(resp.Msg.Post)
	})
}

type PostsCreateCmd struct {
	Title    string `help:"Title, unique across posts" required:""`
	Content  string `help:"Body text" required:""`
	Category string `help:"Category" required:""`
	Image    string `help:"Image reference" default:""`
}

func (p *PostsCreateCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		if err := s.mount(ctx); err != nil {
			return err
		}

		post, err := client.Call(ctx, s.sync, func(ctx context.Context) (*api.Post, error) {
			resp, err := s.clients.Posts.CreatePost(ctx, connect.NewRequest(&api.CreatePostRequest{
				Title:    p.Title,
				Content:  p.Content,
				Category: p.Category,
				Image:    p.Image,
			}))
			if err != nil {
				return nil, err
			}
			return resp.Msg.Post, nil
		})
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		return s.printYAML(post)
	})
}

type PostsUpdateCmd struct {
	ID       string  `arg:"" help:"Post ID"`
	Title    *string `help:"New title"`
	Content  *string `help:"New body text"`
	Category *string `help:"New category"`
	Image    *string `help:"New image reference"`
}

func (p *PostsUpdateCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		if err := s.mount(ctx); err != nil {
			return err
		}

		post, err := client.Call(ctx, s.sync, func(ctx context.Context) (*api.Post, error) {
			resp, err := s.clients.Posts.UpdatePost(ctx, connect.NewRequest(&api.UpdatePostRequest{
				PostID:   p.ID,
				Title:    p.Title,
				Content:  p.Content,
				Category: p.Category,
				Image:    p.Image,
			}))
			if err != nil {
				return nil, err
			}
			return resp.Msg.Post, nil
		})
		if err != nil {
			return fmt.Errorf("failed to update post: %w", err)
		}
		return s.printYAML(post)
	})
}

type PostsDeleteCmd struct {
	ID string `arg:"" help:"Post ID"`
}

func (p *PostsDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		if err := s.mount(ctx); err != nil {
			return err
		}

		_, err := client.Call(ctx, s.sync, func(ctx context.Context) (*api.DeletePostResponse, error) {
			resp, err := s.clients.Posts.DeletePost(ctx, connect.NewRequest(&api.DeletePostRequest{PostID: p.ID}))
			if err != nil {
				return nil, err
			}
			return resp.Msg, nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}

		fmt.Fprintln(s.out, "Post deleted.")
		return nil
	})
}
