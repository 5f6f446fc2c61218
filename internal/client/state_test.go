package client

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sessionauth/internal/api"
)

func TestStateSubscribe(t *testing.T) {
	s := NewState()
	require.Nil(t, s.Principal())
	require.False(t, s.Loading())

	var seen []Snapshot
	unsubscribe := s.Subscribe(func(snap Snapshot) { seen = append(seen, snap) })

	s.setLoading(true)
	s.setPrincipal(&api.User{ID: "p1"})
	s.clear()

	require.Len(t, seen, 3)
	require.True(t, seen[0].Loading)
	require.Equal(t, "p1", seen[1].Principal.ID)
	require.False(t, seen[1].Loading)
	require.Nil(t, seen[2].Principal)

	unsubscribe()
	s.setLoading(true)
	require.Len(t, seen, 3)
	require.True(t, s.Snapshot().Loading)
}
