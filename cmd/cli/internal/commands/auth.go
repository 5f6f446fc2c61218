package commands

import (
	"context"
	"fmt"

	"connectrpc.com/connect"
	"github.com/wolfeidau/sessionauth/internal/api"
)

type RegisterCmd struct {
	Name     string `help:"Display name" required:""`
	Email    string `help:"Email address" required:""`
	Password string `help:"Password (8-32 characters)" env:"SESSIONAUTH_PASSWORD" required:""`
	Photo    string `help:"Avatar reference" default:""`
}

func (r *RegisterCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		resp, err := s.clients.Auth.RegisterUser(ctx, connect.NewRequest(&api.RegisterUserRequest{
			Name:            r.Name,
			Email:           r.Email,
			Password:        r.Password,
			PasswordConfirm: r.Password,
			Photo:           r.Photo,
		}))
		if err != nil {
			return fmt.Errorf("failed to register: %w", err)
		}

		fmt.Fprintln(s.out, "Registered. Run `sessionauth-cli login` to sign in.")
		return s.printYAML(resp.Msg.User)
	})
}

type LoginCmd struct {
	Email    string `help:"Email address" required:""`
	Password string `help:"Password" env:"SESSIONAUTH_PASSWORD" required:""`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		user, err := s.sync.Login(ctx, l.Email, l.Password)
		if err != nil {
			return fmt.Errorf("failed to log in: %w", err)
		}

		fmt.Fprintf(s.out, "Logged in as %s <%s>\n", user.Name, user.Email)
		return nil
	})
}

type WhoamiCmd struct{}

func (w *WhoamiCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		if err := s.mount(ctx); err != nil {
			return err
		}
		return s.printYAML(s.sync.State().Principal())
	})
}

type RefreshCmd struct{}

func (r *RefreshCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		if _, err := s.clients.Auth.RefreshToken(ctx, connect.NewRequest(&api.RefreshTokenRequest{})); err != nil {
			return fmt.Errorf("failed to refresh: %w", err)
		}

		fmt.Fprintln(s.out, "Access token refreshed.")
		return nil
	})
}

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	return globals.run(ctx, func(ctx context.Context, s *session) error {
		if err := s.sync.Logout(ctx); err != nil {
			return fmt.Errorf("failed to log out: %w", err)
		}

		fmt.Fprintln(s.out, "Logged out.")
		return nil
	})
}
