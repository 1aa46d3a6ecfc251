package storage

import (
	"context"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
)

// TokenStorage defines the interface for auth token persistence.
// Records are keyed by digest; lookups during authentication go through the
// indexed token key, which may collide, so ListTokensByKey can return more
// than one record.
type TokenStorage interface {
	// SaveToken stores a new auth token record
	SaveToken(ctx context.Context, token *models.AuthToken) error

	// ListTokensByKey retrieves all records whose token key equals key
	// Returns an empty slice when nothing matches
	ListTokensByKey(ctx context.Context, key string) ([]*models.AuthToken, error)

	// ListUserTokens retrieves all token records owned by a user
	ListUserTokens(ctx context.Context, userID string) ([]*models.AuthToken, error)

	// CountUserTokens counts a user's tokens created at or after createdAfter
	// Used for per-user token limit enforcement
	CountUserTokens(ctx context.Context, userID string, createdAfter time.Time) (int, error)

	// UpdateTokenExpiry persists a new expiry for the record with this digest
	// Returns ErrTokenNotFound if the record no longer exists
	UpdateTokenExpiry(ctx context.Context, digest string, expiry time.Time) error

	// DeleteToken deletes one record by digest
	// Returns ErrTokenNotFound if the record doesn't exist; callers performing
	// cleanup treat that as success since deletions are idempotent
	DeleteToken(ctx context.Context, digest string) error

	// DeleteUserTokens deletes all records owned by a user
	// Returns the number of deleted records
	DeleteUserTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpiredTokens removes every record past its expiry
	// Returns the number of deleted records
	DeleteExpiredTokens(ctx context.Context) (int, error)
}
