package handlers

import (
	"context"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
)

type contextKey string

const (
	authResultKey  contextKey = "auth_result"
	sessionAuthKey contextKey = "session_auth"
)

// SessionIdentity is the request identity established by a session cookie
type SessionIdentity struct {
	User    *models.User
	Session *models.Session
}

// WithAuthResult attaches a token verification result to the context
func WithAuthResult(ctx context.Context, result *auth.Result) context.Context {
	return context.WithValue(ctx, authResultKey, result)
}

// AuthResultFrom extracts the token verification result, if any
func AuthResultFrom(ctx context.Context) *auth.Result {
	result, _ := ctx.Value(authResultKey).(*auth.Result)
	return result
}

// WithSessionIdentity attaches a session identity to the context
func WithSessionIdentity(ctx context.Context, identity *SessionIdentity) context.Context {
	return context.WithValue(ctx, sessionAuthKey, identity)
}

// SessionIdentityFrom extracts the session identity, if any
func SessionIdentityFrom(ctx context.Context) *SessionIdentity {
	identity, _ := ctx.Value(sessionAuthKey).(*SessionIdentity)
	return identity
}
