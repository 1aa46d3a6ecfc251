package storage

import (
	"context"

	"github.com/iudanet/authkeeper/internal/models"
)

// SessionStorage defines the interface for server-side session persistence.
// Sessions are completely independent of auth token records.
type SessionStorage interface {
	// SaveSession stores a new session
	SaveSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves a live session by ID
	// An expired session is removed and reported as ErrSessionNotFound
	GetSession(ctx context.Context, id string) (*models.Session, error)

	// DeleteSession removes one session by ID
	// Returns ErrSessionNotFound if the session doesn't exist
	DeleteSession(ctx context.Context, id string) error

	// DeleteUserSessions removes all sessions owned by a user
	// Returns the number of deleted sessions
	DeleteUserSessions(ctx context.Context, userID string) (int, error)
}
