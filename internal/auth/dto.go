package auth

import (
	"github.com/nexus-market/nexus-backend/internal/users"
)

// LoginRequest carries the credentials submitted to the login endpoints.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries the fields for customer self-registration.
type RegisterRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=32"`
}

// RefreshRequest carries the expired access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// PasswordResetRequest asks for a reset link by email.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SessionResponse is a minted access/refresh pair plus the account profile.
type SessionResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}
