package main

import (
	"context"
	"time"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sessionauth/cmd/cli/internal/commands"
	"github.com/wolfeidau/sessionauth/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Register commands.RegisterCmd `cmd:"" help:"Create an account"`
		Login    commands.LoginCmd    `cmd:"" help:"Log in and store session cookies"`
		Whoami   commands.WhoamiCmd   `cmd:"" help:"Show the logged in user"`
		Refresh  commands.RefreshCmd  `cmd:"" help:"Refresh the access token"`
		Logout   commands.LogoutCmd   `cmd:"" help:"Log out and clear session cookies"`
		Posts    commands.PostsCmd    `cmd:"" help:"Manage posts"`

		Server     string        `help:"Server URL" default:"http://localhost:8080" env:"SESSIONAUTH_SERVER"`
		Timeout    time.Duration `help:"Timeout for each command" default:"30s"`
		CookieFile string        `help:"Cookie file (defaults to ~/.sessionauth/cookies.json)" env:"SESSIONAUTH_COOKIE_FILE"`
		Debug      bool          `help:"Enable debug mode."`
		Version    kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{
		Debug:      cli.Debug,
		Version:    version,
		Server:     cli.Server,
		Timeout:    cli.Timeout,
		CookieFile: cli.CookieFile,
	})
	cmd.FatalIfErrorf(err)
}
