package api

import "time"

// User is the public view of a principal. It never carries the password hash.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Photo     string    `json:"photo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterUserRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
	Photo           string `json:"photo,omitempty"`
}

type RegisterUserResponse struct {
	Status string `json:"status"`
	User   *User  `json:"user"`
}

type LoginUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginUserResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"access_token"`
}

type LogoutUserRequest struct{}

type LogoutUserResponse struct {
	Status string `json:"status"`
}

type RefreshTokenRequest struct{}

type RefreshTokenResponse struct {
	Status      string `json:"status"`
	AccessToken string `json:"access_token"`
}

type GetMeRequest struct{}

type GetMeResponse struct {
	Status string `json:"status"`
	User   *User  `json:"user"`
}
