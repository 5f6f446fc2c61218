package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/auth"
	"golang.org/x/sync/singleflight"
)

// ErrSessionEnded is returned once the session could not be refreshed. The
// caller has been sent to the login surface and must log in again.
var ErrSessionEnded = errors.New("session ended, log in again")

// Redirector sends the user to the login surface.
type Redirector interface {
	RedirectToLogin(ctx context.Context)
}

// RedirectFunc adapts a function to a Redirector.
type RedirectFunc func(ctx context.Context)

func (f RedirectFunc) RedirectToLogin(ctx context.Context) { f(ctx) }

// refreshGuard tracks the silent refresh for one failed call.
type refreshGuard int

const (
	refreshNotAttempted refreshGuard = iota
	refreshInFlight
	refreshAttempted
)

func (g refreshGuard) String() string {
	switch g {
	case refreshInFlight:
		return "in_flight"
	case refreshAttempted:
		return "attempted"
	default:
		return "not_attempted"
	}
}

// Synchronizer keeps State consistent with the server session. A call that
// fails Unauthenticated triggers at most one refresh, shared with every other
// call that observed the same expired token, and is then retried once.
// A refresh that fails Forbidden ends the session: State is cleared and the
// Redirector is called exactly once.
type Synchronizer struct {
	auth     api.AuthServiceClient
	state    *State
	redirect Redirector
	loggedIn func() bool

	group singleflight.Group

	mu sync.Mutex
	// epoch advances whenever the client holds new tokens
	epoch      uint64
	terminated bool
	redirected bool
}

// NewSynchronizer creates a Synchronizer writing to state. loggedIn reports
// whether a session may exist, usually from cookies; nil means always check.
func NewSynchronizer(authClient api.AuthServiceClient, state *State, redirect Redirector, loggedIn func() bool) *Synchronizer {
	if loggedIn == nil {
		loggedIn = func() bool { return true }
	}
	if redirect == nil {
		redirect = RedirectFunc(func(context.Context) {})
	}
	return &Synchronizer{
		auth:     authClient,
		state:    state,
		redirect: redirect,
		loggedIn: loggedIn,
	}
}

// State returns the state container the Synchronizer writes.
func (s *Synchronizer) State() *State {
	return s.state
}

// Call runs fn, refreshing once and retrying if it fails Unauthenticated.
// fn may run twice and must build a fresh request each time. Errors that are
// neither Unauthenticated nor Forbidden are returned unchanged.
func Call[T any](ctx context.Context, s *Synchronizer, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	guard := refreshNotAttempted

	for {
		observed := s.currentEpoch()

		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}

		if auth.KindOf(err) != auth.KindUnauthenticated || guard != refreshNotAttempted {
			return res, err
		}

		if s.isTerminated() {
			return zero, fmt.Errorf("%w: %w", ErrSessionEnded, err)
		}

		guard = refreshInFlight
		rerr := s.refresh(ctx, observed, guard)
		guard = refreshAttempted

		if rerr != nil {
			if isTerminal(rerr) {
				s.terminate(ctx)
				return zero, fmt.Errorf("%w: %w", ErrSessionEnded, rerr)
			}
			return zero, rerr
		}
	}
}

// Mount checks the session when the session hint is present and stores the
// principal. Without the hint the state is left anonymous and no call is made.
func (s *Synchronizer) Mount(ctx context.Context) error {
	if !s.loggedIn() {
		s.state.setLoading(false)
		return nil
	}

	_, err := s.WhoAmI(ctx)
	return err
}

// WhoAmI fetches the current principal and stores it.
func (s *Synchronizer) WhoAmI(ctx context.Context) (*api.User, error) {
	s.state.setLoading(true)

	user, err := Call(ctx, s, func(ctx context.Context) (*api.User, error) {
		resp, err := s.auth.GetMe(ctx, connect.NewRequest(&api.GetMeRequest{}))
		if err != nil {
			return nil, err
		}
		return resp.Msg.User, nil
	})
	if err != nil {
		s.state.setLoading(false)
		return nil, err
	}

	s.setPrincipal(user)
	return user, nil
}

// Login authenticates and loads the principal into State.
func (s *Synchronizer) Login(ctx context.Context, email, password string) (*api.User, error) {
	_, err := s.auth.LoginUser(ctx, connect.NewRequest(&api.LoginUserRequest{
		Email:    email,
		Password: password,
	}))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.epoch++
	s.terminated = false
	s.mu.Unlock()

	return s.WhoAmI(ctx)
}

// Logout ends the session on the server and clears State.
func (s *Synchronizer) Logout(ctx context.Context) error {
	if _, err := s.auth.LogoutUser(ctx, connect.NewRequest(&api.LogoutUserRequest{})); err != nil {
		return err
	}

	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()

	s.state.clear()
	return nil
}

func (s *Synchronizer) refresh(ctx context.Context, observed uint64, guard refreshGuard) error {
	key := s.flightKey(observed)

	_, err, shared := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		switch {
		case s.terminated:
			s.mu.Unlock()
			return nil, ErrSessionEnded
		case s.epoch != observed:
			// an earlier refresh already replaced the token this caller saw
			s.mu.Unlock()
			return nil, nil
		}
		s.mu.Unlock()

		_, err := s.auth.RefreshToken(ctx, connect.NewRequest(&api.RefreshTokenRequest{}))

		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			if isTerminal(err) {
				s.terminated = true
			}
			return nil, err
		}
		s.epoch++
		return nil, nil
	})

	zerolog.Ctx(ctx).Debug().
		Str("key", key).
		Str("guard", guard.String()).
		Bool("shared", shared).
		AnErr("refresh_error", err).
		Msg("Access token refresh")

	return err
}

func (s *Synchronizer) flightKey(epoch uint64) string {
	subject := "anonymous"
	if p := s.state.Principal(); p != nil {
		subject = p.ID
	}
	return subject + "/" + strconv.FormatUint(epoch, 10)
}

// terminate clears State and redirects, once per ended session.
func (s *Synchronizer) terminate(ctx context.Context) {
	s.mu.Lock()
	if s.redirected {
		s.mu.Unlock()
		return
	}
	s.terminated = true
	s.redirected = true
	s.mu.Unlock()

	zerolog.Ctx(ctx).Info().Msg("Session ended, redirecting to login")

	s.state.clear()
	s.redirect.RedirectToLogin(ctx)
}

func (s *Synchronizer) setPrincipal(user *api.User) {
	s.mu.Lock()
	s.terminated = false
	s.redirected = false
	s.mu.Unlock()

	s.state.setPrincipal(user)
}

func (s *Synchronizer) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Synchronizer) isTerminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminated
}

func isTerminal(err error) bool {
	if errors.Is(err, ErrSessionEnded) {
		return true
	}
	switch auth.KindOf(err) {
	case auth.KindForbidden, auth.KindUnauthenticated:
		return true
	}
	return false
}
