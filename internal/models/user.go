package models

import "time"

// User represents an account in the system
type User struct {
	ID           string     `json:"id"`            // user UUID
	Username     string     `json:"username"`      // unique username
	Email        string     `json:"email"`         // unique email address
	PasswordHash string     `json:"-"`             // bcrypt hash, never serialized
	IsActive     bool       `json:"is_active"`     // inactive users cannot authenticate
	CreatedAt    time.Time  `json:"created_at"`    // account creation time
	LastLoginAt  *time.Time `json:"last_login_at"` // nil until the first login
}
