package storage

import (
	"context"

	"github.com/iudanet/authkeeper/internal/models"
)

// SessionStorage defines interface for session persistence.
// It doubles as the revocation registry: revocation is a keyed UPDATE and
// every validation is a keyed SELECT, no scanning and no caching.
type SessionStorage interface {
	// CreateSession stores a new session
	CreateSession(ctx context.Context, session *models.Session) error

	// GetSession retrieves session by its token
	// Returns ErrSessionNotFound if session doesn't exist
	GetSession(ctx context.Context, token string) (*models.Session, error)

	// RevokeSession marks the session revoked. Revoking an already
	// revoked or unknown session is not an error (logout is idempotent).
	RevokeSession(ctx context.Context, token string) error

	// RevokeUserSessions revokes all sessions of a user
	// Returns number of sessions revoked
	RevokeUserSessions(ctx context.Context, userID string) (int, error)

	// DeleteExpiredSessions removes sessions past their absolute expiry
	// Returns number of deleted sessions
	DeleteExpiredSessions(ctx context.Context) (int, error)
}
