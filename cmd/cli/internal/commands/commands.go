package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/sessionauth/cmd/cli/internal/cookies"
	"github.com/wolfeidau/sessionauth/internal/client"
	"gopkg.in/yaml.v3"
)

type Globals struct {
	Debug      bool
	Version    string
	Server     string
	Timeout    time.Duration
	CookieFile string

	// Out receives command output, os.Stdout when nil.
	Out io.Writer

	// now drives cookie expiry, time.Now when nil.
	now func() time.Time
}

// ErrLoginRequired is returned when the command needs a session and there is none.
var ErrLoginRequired = errors.New("not logged in, run `sessionauth-cli login`")

// session is the per-invocation client: clients, synchronizer and the cookie
// jar that is saved when the command finishes.
type session struct {
	clients *client.Clients
	sync    *client.Synchronizer
	jar     *cookies.Jar
	out     io.Writer
}

func (g *Globals) open() (*session, error) {
	jar, err := cookies.Open(g.CookieFile, cookies.WithClock(g.now))
	if err != nil {
		return nil, err
	}

	otelInterceptor, err := otelconnect.NewInterceptor()
	if err != nil {
		return nil, fmt.Errorf("failed to create interceptor: %w", err)
	}

	config := client.Config{
		ServerURL: g.Server,
		Timeout:   g.Timeout,
		Debug:     g.Debug,
	}
	clients, err := client.NewClients(config, jar, connect.WithInterceptors(otelInterceptor))
	if err != nil {
		return nil, fmt.Errorf("failed to create clients: %w", err)
	}

	out := g.Out
	if out == nil {
		out = os.Stdout
	}

	s := &session{
		clients: clients,
		jar:     jar,
		out:     out,
	}
	s.sync = client.NewSynchronizer(clients.Auth, client.NewState(), client.RedirectFunc(s.redirectToLogin), clients.HasSession)

	return s, nil
}

// run opens a session, applies the command timeout and saves cookies afterwards.
func (g *Globals) run(ctx context.Context, fn func(ctx context.Context, s *session) error) error {
	s, err := g.open()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	runErr := fn(ctx, s)

	if err := s.jar.Save(); err != nil {
		log.Warn().Err(err).Msg("failed to save cookies")
	}

	return runErr
}

func (s *session) redirectToLogin(context.Context) {
	fmt.Fprintln(os.Stderr, "Your session has ended. Run `sessionauth-cli login` to sign in again.")
}

// mount restores the principal from the saved cookies.
func (s *session) mount(ctx context.Context) error {
	if err := s.sync.Mount(ctx); err != nil {
		return err
	}
	if s.sync.State().Principal() == nil {
		return ErrLoginRequired
	}
	return nil
}

func (s *session) printYAML(v any) error {
	enc := yaml.NewEncoder(s.out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return enc.Close()
}
