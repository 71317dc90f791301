package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// SaveRefreshToken stores a new refresh token (chain root)
func (s *Storage) SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, token, user_id, session_token, issued_at, expires_at, used, superseded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.Token,
		token.UserID,
		token.SessionToken,
		token.IssuedAt,
		token.ExpiresAt,
		token.Used,
		token.SupersededBy,
	)

	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}

	return nil
}

// GetRefreshToken retrieves refresh token by token value
func (s *Storage) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, token, user_id, session_token, issued_at, expires_at, used, superseded_by
		FROM refresh_tokens
		WHERE token = ?
	`

	refreshToken := &models.RefreshToken{}
	var supersededBy sql.NullString

	err := s.db.QueryRowContext(ctx, query, token).Scan(
		&refreshToken.ID,
		&refreshToken.Token,
		&refreshToken.UserID,
		&refreshToken.SessionToken,
		&refreshToken.IssuedAt,
		&refreshToken.ExpiresAt,
		&refreshToken.Used,
		&supersededBy,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	if supersededBy.Valid {
		refreshToken.SupersededBy = &supersededBy.String
	}

	return refreshToken, nil
}

// RotateRefreshToken atomically consumes the old token and inserts its
// successor. The conditional update is the serialization point: of two
// concurrent rotations with the same token only one matches used = 0,
// the other gets ErrTokenUsed.
func (s *Storage) RotateRefreshToken(ctx context.Context, oldID string, successor *models.RefreshToken) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result, err := tx.ExecContext(ctx,
		`UPDATE refresh_tokens SET used = 1, superseded_by = ? WHERE id = ? AND used = 0`,
		successor.ID, oldID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark refresh token used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return storage.ErrTokenUsed
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, token, user_id, session_token, issued_at, expires_at, used, superseded_by)
		 VALUES (?, ?, ?, ?, ?, ?, 0, NULL)`,
		successor.ID,
		successor.Token,
		successor.UserID,
		successor.SessionToken,
		successor.IssuedAt,
		successor.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert successor token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}

	return nil
}

// DeleteUserRefreshTokens deletes all refresh tokens of a user
func (s *Storage) DeleteUserRefreshTokens(ctx context.Context, userID string) (int, error) {
	query := `DELETE FROM refresh_tokens WHERE user_id = ?`

	result, err := s.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

// DeleteExpiredRefreshTokens removes all expired tokens
func (s *Storage) DeleteExpiredRefreshTokens(ctx context.Context) (int, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, timeNow())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
