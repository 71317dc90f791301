// Package storage defines the client-side persistence interfaces.
package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing authentication data on client
type AuthStorage interface {
	// SaveAuth stores authentication data
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if auth data exists and the access token
	// has not expired yet
	IsAuthenticated(ctx context.Context) (bool, error)
}

// AuthData represents the credential set of the logged-in user.
// Tokens are stored as received from the server; the database file
// itself is protected by 0600 permissions.
type AuthData struct {
	Username     string    `json:"username"`
	UserID       string    `json:"user_id"`
	Role         string    `json:"role"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"` // истечение access token
}
