package client

import (
	"sync"

	"github.com/wolfeidau/sessionauth/internal/api"
)

// Snapshot is a point-in-time view of the State.
type Snapshot struct {
	Principal *api.User
	Loading   bool
}

// State holds the client-visible current principal. Any number of readers may
// observe it; only the Synchronizer writes it.
type State struct {
	mu        sync.RWMutex
	principal *api.User
	loading   bool

	subs   map[int]func(Snapshot)
	nextID int
}

// NewState creates an empty, anonymous State.
func NewState() *State {
	return &State{subs: make(map[int]func(Snapshot))}
}

// Principal returns the current principal, or nil when anonymous.
func (s *State) Principal() *api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.principal
}

// Loading reports whether a session check is in progress.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Snapshot returns the principal and loading flag together.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Principal: s.principal, Loading: s.loading}
}

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *State) setPrincipal(user *api.User) {
	s.update(func() {
		s.principal = user
		s.loading = false
	})
}

func (s *State) setLoading(loading bool) {
	s.update(func() { s.loading = loading })
}

func (s *State) clear() {
	s.setPrincipal(nil)
}

func (s *State) update(fn func()) {
	s.mu.Lock()
	fn()
	snap := Snapshot{Principal: s.principal, Loading: s.loading}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}
