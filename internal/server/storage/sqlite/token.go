package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// SaveToken stores a new auth token record
func (s *Storage) SaveToken(ctx context.Context, token *models.AuthToken) error {
	query := `
		INSERT INTO auth_tokens (digest, token_key, user_id, created_at, expiry)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.Digest,
		token.TokenKey,
		token.UserID,
		token.CreatedAt,
		token.Expiry,
	)

	if err != nil {
		return fmt.Errorf("failed to save auth token: %w", err)
	}

	return nil
}

const tokenColumns = `digest, token_key, user_id, created_at, expiry`

func (s *Storage) listTokens(ctx context.Context, query string, arg any) ([]*models.AuthToken, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query auth tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tokens []*models.AuthToken

	for rows.Next() {
		token := &models.AuthToken{}
		var expiry sql.NullTime

		if err := rows.Scan(
			&token.Digest,
			&token.TokenKey,
			&token.UserID,
			&token.CreatedAt,
			&expiry,
		); err != nil {
			return nil, fmt.Errorf("failed to scan auth token: %w", err)
		}

		if expiry.Valid {
			token.Expiry = &expiry.Time
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tokens, nil
}

// ListTokensByKey retrieves all records whose token key equals key
func (s *Storage) ListTokensByKey(ctx context.Context, key string) ([]*models.AuthToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM auth_tokens WHERE token_key = ? ORDER BY created_at`
	return s.listTokens(ctx, query, key)
}

// ListUserTokens retrieves all token records owned by a user
func (s *Storage) ListUserTokens(ctx context.Context, userID string) ([]*models.AuthToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM auth_tokens WHERE user_id = ? ORDER BY created_at`
	return s.listTokens(ctx, query, userID)
}

// CountUserTokens counts a user's tokens created at or after createdAfter
func (s *Storage) CountUserTokens(ctx context.Context, userID string, createdAfter time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM auth_tokens WHERE user_id = ? AND created_at >= ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, createdAfter).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count user tokens: %w", err)
	}

	return count, nil
}

// UpdateTokenExpiry persists a new expiry for the record with this digest
func (s *Storage) UpdateTokenExpiry(ctx context.Context, digest string, expiry time.Time) error {
	query := `UPDATE auth_tokens SET expiry = ? WHERE digest = ?`

	result, err := s.db.ExecContext(ctx, query, expiry, digest)
	if err != nil {
		return fmt.Errorf("failed to update token expiry: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrTokenNotFound
	}

	return nil
}

// DeleteToken deletes one record by digest
func (s *Storage) DeleteToken(ctx context.Context, digest string) error {
	query := `DELETE FROM auth_tokens WHERE digest = ?`

	result, err := s.db.ExecContext(ctx, query, digest)
	if err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrTokenNotFound
	}

	return nil
}

// DeleteUserTokens deletes all records owned by a user
func (s *Storage) DeleteUserTokens(ctx context.Context, userID string) (int, error) {
	query := `DELETE FROM auth_tokens WHERE user_id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteExpiredTokens removes every record past its expiry
func (s *Storage) DeleteExpiredTokens(ctx context.Context) (int, error) {
	query := `DELETE FROM auth_tokens WHERE expiry IS NOT NULL AND expiry < ?`

	result, err := s.db.ExecContext(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
