package storage

import (
	"context"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
)

// RefreshTokenStorage defines interface for refresh token persistence
type RefreshTokenStorage interface {
	// SaveRefreshToken stores a new refresh token (chain root)
	SaveRefreshToken(ctx context.Context, token *models.RefreshToken) error

	// GetRefreshToken retrieves refresh token by token value
	// Returns ErrTokenNotFound if token doesn't exist
	GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error)

	// RotateRefreshToken atomically marks the old token used, records the
	// successor ID on it and inserts the successor. The mark step is a
	// conditional update (WHERE used = 0); when it matches no rows the
	// token was already exchanged and ErrTokenUsed is returned, so of two
	// concurrent rotations exactly one can succeed.
	RotateRefreshToken(ctx context.Context, oldID string, successor *models.RefreshToken) error

	// DeleteUserRefreshTokens deletes all refresh tokens of a user
	// Returns number of deleted tokens
	DeleteUserRefreshTokens(ctx context.Context, userID string) (int, error)

	// DeleteExpiredRefreshTokens removes all expired tokens
	// Returns number of deleted tokens
	DeleteExpiredRefreshTokens(ctx context.Context) (int, error)
}

// APITokenStorage defines interface for API token persistence.
// Raw token values never reach this layer, only SHA256 hashes.
type APITokenStorage interface {
	// CreateAPIToken stores a new API token record
	CreateAPIToken(ctx context.Context, token *models.APIToken) error

	// GetAPITokenByHash retrieves an API token by its hash
	// Returns ErrTokenNotFound if token doesn't exist
	GetAPITokenByHash(ctx context.Context, tokenHash string) (*models.APIToken, error)

	// ListUserAPITokens retrieves all API tokens of a user, newest first
	ListUserAPITokens(ctx context.Context, userID string) ([]*models.APIToken, error)

	// RevokeAPIToken marks the token revoked, scoped to its owner
	// Returns ErrTokenNotFound if the token doesn't exist or belongs to
	// another user
	RevokeAPIToken(ctx context.Context, tokenID, userID string) error

	// RevokeUserAPITokens revokes all API tokens of a user
	// Returns number of tokens revoked
	RevokeUserAPITokens(ctx context.Context, userID string) (int, error)

	// UpdateAPITokenLastUsed updates the last used timestamp
	UpdateAPITokenLastUsed(ctx context.Context, tokenID string, usedAt time.Time) error
}
