package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authkeeper/internal/models"
)

// setupTestStorage creates an in-memory storage with migrations applied
func setupTestStorage(t *testing.T) (*Storage, func()) {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)

	return s, func() {
		_ = s.Close()
	}
}

// createTestUser inserts a user and returns its ID
func createTestUser(t *testing.T, ctx context.Context, s *Storage) string {
	t.Helper()

	userID := uuid.New().String()
	err := s.CreateUser(ctx, &models.User{
		ID:           userID,
		Username:     "user_" + userID[:8],
		Email:        userID[:8] + "@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotare",
		IsActive:     true,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)

	return userID
}
