// Package auth implements the token lifecycle core: opaque token issuance
// and digest-based verification with lazy cleanup and throttled renewal.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/authkeeper/internal/config"
	"github.com/iudanet/authkeeper/internal/crypto"
	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// Manager creates and revokes auth token records
type Manager struct {
	logger   *slog.Logger
	tokens   storage.TokenStorage
	settings *config.Store
	now      func() time.Time
}

// NewManager creates a token manager
func NewManager(logger *slog.Logger, tokens storage.TokenStorage, settings *config.Store) *Manager {
	return &Manager{
		logger:   logger,
		tokens:   tokens,
		settings: settings,
		now:      time.Now,
	}
}

// CreateToken generates a raw token for the user, persists its record and
// returns both. The raw value is handed out exactly this once; only the
// digest and a short lookup key are stored.
// ttl == nil produces a non-expiring token.
func (m *Manager) CreateToken(ctx context.Context, user *models.User, ttl *time.Duration, prefix string) (*models.AuthToken, string, error) {
	s := m.settings.Snapshot()

	random, err := crypto.GenerateTokenString(s.TokenCharacterLength)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}
	raw := prefix + random

	digest, err := crypto.HashToken(raw, s.HashAlgorithm)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash token: %w", err)
	}

	var expiry *time.Time
	if ttl != nil {
		e := m.now().Add(*ttl)
		expiry = &e
	}

	token := &models.AuthToken{
		Digest:    digest,
		TokenKey:  tokenKey(raw),
		UserID:    user.ID,
		CreatedAt: m.now(),
		Expiry:    expiry,
	}

	if err := m.tokens.SaveToken(ctx, token); err != nil {
		return nil, "", fmt.Errorf("failed to persist token: %w", err)
	}

	m.logger.DebugContext(ctx, "auth token created",
		slog.String("user_id", user.ID),
		slog.String("token_key", token.TokenKey))

	return token, raw, nil
}

// Revoke deletes one token record
func (m *Manager) Revoke(ctx context.Context, token *models.AuthToken) error {
	return m.tokens.DeleteToken(ctx, token.Digest)
}

// RevokeAll deletes every token record owned by the user
func (m *Manager) RevokeAll(ctx context.Context, userID string) (int, error) {
	return m.tokens.DeleteUserTokens(ctx, userID)
}

// tokenKey returns the indexed lookup key for a raw token
func tokenKey(raw string) string {
	if len(raw) < config.TokenKeyLength {
		return raw
	}
	return raw[:config.TokenKeyLength]
}
