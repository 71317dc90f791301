package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// CreateAPIToken stores a new API token record
func (s *Storage) CreateAPIToken(ctx context.Context, token *models.APIToken) error {
	query := `
		INSERT INTO api_tokens (id, user_id, name, token_hash, created_at, last_used_at, expires_at, revoked)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Name,
		token.TokenHash,
		token.CreatedAt,
		token.LastUsedAt,
		token.ExpiresAt,
		token.Revoked,
	)

	if err != nil {
		return fmt.Errorf("failed to insert api token: %w", err)
	}

	return nil
}

// GetAPITokenByHash retrieves an API token by its hash
func (s *Storage) GetAPITokenByHash(ctx context.Context, tokenHash string) (*models.APIToken, error) {
	query := `
		SELECT id, user_id, name, token_hash, created_at, last_used_at, expires_at, revoked
		FROM api_tokens
		WHERE token_hash = ?
	`

	return scanAPIToken(s.db.QueryRowContext(ctx, query, tokenHash))
}

// scanAPIToken читает одну строку api_tokens
func scanAPIToken(row *sql.Row) (*models.APIToken, error) {
	token := &models.APIToken{}
	var lastUsedAt, expiresAt sql.NullTime

	err := row.Scan(
		&token.ID,
		&token.UserID,
		&token.Name,
		&token.TokenHash,
		&token.CreatedAt,
		&lastUsedAt,
		&expiresAt,
		&token.Revoked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get api token: %w", err)
	}

	if lastUsedAt.Valid {
		token.LastUsedAt = &lastUsedAt.Time
	}
	if expiresAt.Valid {
		token.ExpiresAt = &expiresAt.Time
	}

	return token, nil
}

// ListUserAPITokens retrieves all API tokens of a user, newest first
func (s *Storage) ListUserAPITokens(ctx context.Context, userID string) ([]*models.APIToken, error) {
	query := `
		SELECT id, user_id, name, token_hash, created_at, last_used_at, expires_at, revoked
		FROM api_tokens
		WHERE user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query api tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tokens []*models.APIToken

	for rows.Next() {
		token := &models.APIToken{}
		var lastUsedAt, expiresAt sql.NullTime

		if err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.Name,
			&token.TokenHash,
			&token.CreatedAt,
			&lastUsedAt,
			&expiresAt,
			&token.Revoked,
		); err != nil {
			return nil, fmt.Errorf("failed to scan api token: %w", err)
		}

		if lastUsedAt.Valid {
			token.LastUsedAt = &lastUsedAt.Time
		}
		if expiresAt.Valid {
			token.ExpiresAt = &expiresAt.Time
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tokens, nil
}

// RevokeAPIToken marks the token revoked, scoped to its owner
func (s *Storage) RevokeAPIToken(ctx context.Context, tokenID, userID string) error {
	query := `UPDATE api_tokens SET revoked = 1 WHERE id = ? AND user_id = ?`

	result, err := s.db.ExecContext(ctx, query, tokenID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke api token: %w", err)
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

// RevokeUserAPITokens revokes all API tokens of a user
func (s *Storage) RevokeUserAPITokens(ctx context.Context, userID string) (int, error) {
	query := `UPDATE api_tokens SET revoked = 1 WHERE user_id = ? AND revoked = 0`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user api tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// UpdateAPITokenLastUsed updates the last used timestamp
func (s *Storage) UpdateAPITokenLastUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	query := `UPDATE api_tokens SET last_used_at = ? WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query, usedAt, tokenID); err != nil {
		return fmt.Errorf("failed to update api token last used: %w", err)
	}

	return nil
}
