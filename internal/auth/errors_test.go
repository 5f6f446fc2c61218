package auth

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	for kind := range kindNames {
		if kind == KindUnknown {
			continue
		}
		err := NewError(kind, "message")
		require.Equal(t, kind, KindOf(err), kind.String())
		require.Equal(t, kind, KindOf(fmt.Errorf("wrapped: %w", err)), kind.String())
	}

	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	require.Equal(t, KindUnknown, KindOf(nil))
}

func TestKindOfFallsBackToCode(t *testing.T) {
	require.Equal(t, KindUnauthenticated, KindOf(connect.NewError(connect.CodeUnauthenticated, errors.New("x"))))
	require.Equal(t, KindForbidden, KindOf(connect.NewError(connect.CodePermissionDenied, errors.New("x"))))
	require.Equal(t, KindUnknown, KindOf(connect.NewError(connect.CodeUnavailable, errors.New("x"))))
}

func TestNewError(t *testing.T) {
	err := NewError(KindUnauthenticated, MsgUnauthenticated)
	require.Equal(t, connect.CodeUnauthenticated, err.Code())
	require.Equal(t, MsgUnauthenticated, err.Message())
	require.Equal(t, "unauthenticated", err.Meta().Get(ErrorKindHeader))

	require.Equal(t, connect.CodeInvalidArgument, NewError(KindInvalidCredentials, MsgInvalidCredentials).Code())
	require.Equal(t, connect.CodePermissionDenied, NewError(KindForbidden, MsgRefreshFailed).Code())
	require.Equal(t, connect.CodeAlreadyExists, NewError(KindConflict, MsgEmailExists).Code())
}
