package storage

import (
	"context"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
)

// UserStorage defines the interface for user account persistence
type UserStorage interface {
	// CreateUser stores a new user
	// Returns ErrUserAlreadyExists / ErrEmailAlreadyExists on uniqueness violations
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves a user by username
	// Returns ErrUserNotFound if the user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByEmail retrieves a user by email
	// Returns ErrUserNotFound if the user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID
	// Returns ErrUserNotFound if the user doesn't exist
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateLastLogin records the time of the user's latest login
	UpdateLastLogin(ctx context.Context, userID string, loginTime time.Time) error

	// DeleteUser removes a user; dependent token records cascade
	DeleteUser(ctx context.Context, id string) error
}
