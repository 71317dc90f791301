// Package users implements the credential store: account records and
// password verification on top of bcrypt.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/storage"
	"github.com/iudanet/authkeeper/internal/validation"
)

// Service управляет учетными записями пользователей
type Service struct {
	logger    *slog.Logger
	users     storage.UserStorage
	sessions  storage.SessionStorage
	apiTokens storage.APITokenStorage

	// dummyHash сравнивается с паролем, когда username не найден, чтобы
	// путь ошибки стоил столько же, сколько проверка реального хеша
	dummyHash []byte
}

// UpdatePatch describes a partial admin update of a user record.
// Nil fields are left unchanged.
type UpdatePatch struct {
	Username *string
	Role     *models.Role
	IsActive *bool
}

// NewService creates a new user service
func NewService(logger *slog.Logger, users storage.UserStorage, sessions storage.SessionStorage, apiTokens storage.APITokenStorage) (*Service, error) {
	dummyHash, err := bcrypt.GenerateFromPassword([]byte("authkeeper-dummy-password"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dummy hash: %w", err)
	}

	return &Service{
		logger:    logger,
		users:     users,
		sessions:  sessions,
		apiTokens: apiTokens,
		dummyHash: dummyHash,
	}, nil
}

// Verify checks username/password and returns the user on success.
// Unknown username, wrong password and a deactivated account all return
// auth.ErrInvalidCredentials through the same code path: the bcrypt
// comparison runs in every branch so the caller cannot probe usernames
// by timing.
func (s *Service) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Сравнение с заглушкой, чтобы не выдать отсутствие пользователя по времени ответа
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			return nil, auth.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, auth.ErrInvalidCredentials
	}

	return user, nil
}

// Create validates inputs, hashes the password and stores a new user
func (s *Service) Create(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be %q or %q", validation.ErrValidation, models.RoleUser, models.RoleAdmin)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(passwordHash),
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, auth.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.InfoContext(ctx, "user created",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)))

	return user, nil
}

// Get retrieves a user by ID
func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, auth.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// List retrieves all users
func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Update applies an admin patch to a user. Deactivating a user revokes
// all their sessions and API tokens in the same call.
func (s *Service) Update(ctx context.Context, userID string, patch UpdatePatch) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		if err := validation.ValidateUsername(*patch.Username); err != nil {
			return nil, err
		}
		user.Username = *patch.Username
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, fmt.Errorf("%w: role must be %q or %q", validation.ErrValidation, models.RoleUser, models.RoleAdmin)
		}
		user.Role = *patch.Role
	}

	deactivated := false
	if patch.IsActive != nil {
		deactivated = user.IsActive && !*patch.IsActive
		user.IsActive = *patch.IsActive
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, storage.ErrUserNotFound):
			return nil, auth.ErrNotFound
		case errors.Is(err, storage.ErrUserAlreadyExists):
			return nil, auth.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if deactivated {
		s.revokeCredentials(ctx, userID)
	}

	return user, nil
}

// ChangePassword re-verifies the old password before setting the new one
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return auth.ErrInvalidCredentials
	}

	return s.setPassword(ctx, userID, newPassword)
}

// ResetPassword sets a new password without knowing the old one (admin)
func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	return s.setPassword(ctx, userID, newPassword)
}

func (s *Service) setPassword(ctx context.Context, userID, newPassword string) error {
	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.SetPasswordHash(ctx, userID, string(passwordHash)); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return auth.ErrNotFound
		}
		return fmt.Errorf("failed to set password: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", userID))

	return nil
}

// Delete removes a user. Sessions, refresh tokens and API tokens are
// revoked first so no credential survives even if another process holds
// a stale row.
func (s *Service) Delete(ctx context.Context, userID string) error {
	s.revokeCredentials(ctx, userID)

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return auth.ErrNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted", slog.String("user_id", userID))

	return nil
}

// UpdateLastLogin updates the last login timestamp (best-effort)
func (s *Service) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	return s.users.UpdateLastLogin(ctx, userID, lastLogin)
}

// revokeCredentials отзывает все сессии и API токены пользователя
func (s *Service) revokeCredentials(ctx context.Context, userID string) {
	sessions, err := s.sessions.RevokeUserSessions(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke user sessions",
			slog.String("user_id", userID), slog.Any("error", err))
	}

	tokens, err := s.apiTokens.RevokeUserAPITokens(ctx, userID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke user api tokens",
			slog.String("user_id", userID), slog.Any("error", err))
	}

	s.logger.InfoContext(ctx, "user credentials revoked",
		slog.String("user_id", userID),
		slog.Int("sessions", sessions),
		slog.Int("api_tokens", tokens))
}
