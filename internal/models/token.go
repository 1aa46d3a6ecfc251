package models

import "time"

// AuthToken represents a persisted bearer token record.
// The raw token value is returned to the client exactly once at creation
// and is never stored; only its digest and a short lookup key survive.
type AuthToken struct {
	Digest    string     `json:"digest"`     // hex digest of the full raw token, primary key
	TokenKey  string     `json:"token_key"`  // first characters of the raw token, indexed
	UserID    string     `json:"user_id"`    // owning user UUID
	CreatedAt time.Time  `json:"created_at"` // set once at creation
	Expiry    *time.Time `json:"expiry"`     // nil means the token never expires
}

// Expired reports whether the token is past its expiry at the given moment
func (t *AuthToken) Expired(now time.Time) bool {
	return t.Expiry != nil && t.Expiry.Before(now)
}

// Session represents a server-side session established by cookie login.
// Sessions are independent of auth tokens and live in their own store.
type Session struct {
	ID        string    `json:"id"`         // random session identifier
	UserID    string    `json:"user_id"`    // owning user UUID
	CreatedAt time.Time `json:"created_at"` // session creation time
	ExpiresAt time.Time `json:"expires_at"` // hard session deadline
}
