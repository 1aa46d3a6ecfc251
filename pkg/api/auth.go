// Package api defines the JSON request/response contracts of the auth API
package api

import "time"

// RegisterRequest is the payload for POST /api/v1/auth/register
type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

// RegisterResponse confirms a successful registration
type RegisterResponse struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// LoginRequest is the payload for token and session login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the one-time raw token and its expiry.
// Expiry is null for non-expiring tokens.
type LoginResponse struct {
	Token  string     `json:"token"`
	Expiry *time.Time `json:"expiry"`
}

// MeResponse reports the authenticated identity and mechanism
type MeResponse struct {
	Username   string `json:"username"`
	AuthMethod string `json:"auth_method"` // "token" or "session"
}

// MessageResponse is a generic success envelope
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the error envelope for all endpoints
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
