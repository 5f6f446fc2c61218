package server

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/wolfeidau/sessionauth/internal/api"
	"github.com/wolfeidau/sessionauth/internal/auth"
)

// Password length bounds, in characters.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 32
)

// DefaultPhoto is the avatar assigned when registration omits one.
const DefaultPhoto = "default.png"

// normalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateRegistration checks the registration input and returns the
// normalised email address.
func validateRegistration(req *api.RegisterUserRequest) (string, error) {
	if strings.TrimSpace(req.Name) == "" {
		return "", auth.NewError(auth.KindInvalidArgument, "Name is required")
	}

	email := normalizeEmail(req.Email)
	if email == "" {
		return "", auth.NewError(auth.KindInvalidArgument, "Email address is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", auth.NewError(auth.KindInvalidArgument, "Invalid email address")
	}

	if req.Password == "" {
		return "", auth.NewError(auth.KindInvalidArgument, "Password is required")
	}
	n := utf8.RuneCountInString(req.Password)
	if n < MinPasswordLength {
		return "", auth.NewError(auth.KindInvalidArgument, "Password must be more than 8 characters")
	}
	if n > MaxPasswordLength {
		return "", auth.NewError(auth.KindInvalidArgument, "Password must be less than 32 characters")
	}

	if req.PasswordConfirm != req.Password {
		return "", auth.NewError(auth.KindInvalidArgument, "Passwords do not match")
	}

	return email, nil
}

func validatePost(title, content, category string) error {
	switch {
	case strings.TrimSpace(title) == "":
		return auth.NewError(auth.KindInvalidArgument, "Title is required")
	case strings.TrimSpace(content) == "":
		return auth.NewError(auth.KindInvalidArgument, "Content is required")
	case strings.TrimSpace(category) == "":
		return auth.NewError(auth.KindInvalidArgument, "Category is required")
	}
	return nil
}
