package auth

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
)

// ErrorKindHeader carries the Kind of a failed call across the RPC boundary.
const ErrorKindHeader = "Auth-Error-Kind"

// Human readable messages. Clients display these; control flow uses Kind.
const (
	MsgUnauthenticated    = "You must be logged in to access this resource"
	MsgRefreshFailed      = "Could not refresh access token"
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailExists        = "Email already exists"
	MsgInternal           = "Internal server error"
)

// Kind classifies authentication and session failures.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidCredentials
	KindConflict
	KindUnauthenticated // no, invalid or expired access token
	KindForbidden       // refresh token missing, invalid or without a live session
	KindNotFound
	KindInvalidArgument
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindInvalidCredentials: "invalid_credentials",
	KindConflict:           "conflict",
	KindUnauthenticated:    "unauthenticated",
	KindForbidden:          "forbidden",
	KindNotFound:           "not_found",
	KindInvalidArgument:    "invalid_argument",
	KindInternal:           "internal",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// ParseKind is the inverse of Kind.String. Unrecognised names return KindUnknown.
func ParseKind(s string) Kind {
	for k, name := range kindNames {
		if name == s {
			return k
		}
	}
	return KindUnknown
}

// Code returns the connect code a Kind is sent with.
func (k Kind) Code() connect.Code {
	switch k {
	case KindInvalidCredentials, KindInvalidArgument:
		return connect.CodeInvalidArgument
	case KindConflict:
		return connect.CodeAlreadyExists
	case KindUnauthenticated:
		return connect.CodeUnauthenticated
	case KindForbidden:
		return connect.CodePermissionDenied
	case KindNotFound:
		return connect.CodeNotFound
	default:
		return connect.CodeInternal
	}
}

// NewError builds a connect error for kind with msg as its message.
func NewError(kind Kind, msg string) *connect.Error {
	err := connect.NewError(kind.Code(), errors.New(msg))
	err.Meta().Set(ErrorKindHeader, kind.String())
	return err
}

// Internal logs cause and returns a generic KindInternal error so store and
// codec details never reach the caller.
func Internal(ctx context.Context, cause error, msg string) *connect.Error {
	zerolog.Ctx(ctx).Error().Err(cause).Msg(msg)
	return NewError(KindInternal, MsgInternal)
}

// KindOf recovers the Kind of an error returned by a connect client or handler.
// Errors that are not connect errors return KindUnknown.
func KindOf(err error) Kind {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return KindUnknown
	}

	if kind := ParseKind(connectErr.Meta().Get(ErrorKindHeader)); kind != KindUnknown {
		return kind
	}

	switch connectErr.Code() {
	case connect.CodeUnauthenticated:
		return KindUnauthenticated
	case connect.CodePermissionDenied:
		return KindForbidden
	case connect.CodeAlreadyExists:
		return KindConflict
	case connect.CodeNotFound:
		return KindNotFound
	case connect.CodeInvalidArgument:
		return KindInvalidArgument
	case connect.CodeInternal:
		return KindInternal
	default:
		return KindUnknown
	}
}
