package storage

import (
	"context"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
)

// UserStorage defines interface for user data persistence
type UserStorage interface {
	// CreateUser creates a new user in the storage
	// Returns ErrUserAlreadyExists if username is taken (case-insensitive)
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves user by username (case-insensitive)
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// ListUsers retrieves all users ordered by creation time
	ListUsers(ctx context.Context) ([]*models.User, error)

	// UpdateUser updates username, role and is_active
	// Returns ErrUserNotFound if user doesn't exist,
	// ErrUserAlreadyExists if the new username is taken
	UpdateUser(ctx context.Context, user *models.User) error

	// SetPasswordHash replaces the stored password hash
	// Returns ErrUserNotFound if user doesn't exist
	SetPasswordHash(ctx context.Context, userID, passwordHash string) error

	// DeleteUser deletes user by ID; sessions, refresh tokens and API
	// tokens of the user are removed by foreign key cascade
	// Returns ErrUserNotFound if user doesn't exist
	DeleteUser(ctx context.Context, userID string) error

	// UpdateLastLogin updates the last login timestamp
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error
}
