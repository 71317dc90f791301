package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

func setupTestStorage(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	// Используем in-memory database для тестов
	s, err := New(ctx, ":memory:")
	require.NoError(t, err)

	cleanup := func() {
		_ = s.Close()
	}

	return s, cleanup
}

func timePtr(tm time.Time) *time.Time {
	return &tm
}

func createTestUser(t *testing.T, ctx context.Context, s *Storage) *models.User {
	t.Helper()

	userID := uuid.New().String()
	user := &models.User{
		ID:           userID,
		Username:     "testuser_" + userID[:8],
		PasswordHash: "bcrypt-hash",
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateUser(ctx, user))

	return user
}

func TestUserStorage_CreateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "alice",
		PasswordHash: "hash123",
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    time.Now(),
		LastLogin:    timePtr(time.Now()),
	}

	require.NoError(t, s.CreateUser(ctx, user))

	retrieved, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)
	assert.Equal(t, user.Username, retrieved.Username)
	assert.Equal(t, user.PasswordHash, retrieved.PasswordHash)
	assert.Equal(t, models.RoleAdmin, retrieved.Role)
	assert.True(t, retrieved.IsActive)
	require.NotNil(t, retrieved.LastLogin)
}

func TestUserStorage_CreateUser_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     "duplicate",
		PasswordHash: "hash",
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateUser(ctx, user))

	t.Run("Exact duplicate", func(t *testing.T) {
		dup := *user
		dup.ID = uuid.New().String()
		err := s.CreateUser(ctx, &dup)
		assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	})

	t.Run("Case-insensitive duplicate", func(t *testing.T) {
		dup := *user
		dup.ID = uuid.New().String()
		dup.Username = "DUPLICATE"
		err := s.CreateUser(ctx, &dup)
		assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	})
}

func TestUserStorage_GetUserByUsername(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s)

	t.Run("Exact match", func(t *testing.T) {
		retrieved, err := s.GetUserByUsername(ctx, user.Username)
		require.NoError(t, err)
		assert.Equal(t, user.ID, retrieved.ID)
	})

	t.Run("Different case", func(t *testing.T) {
		retrieved, err := s.GetUserByUsername(ctx, "TESTUSER_"+user.ID[:8])
		require.NoError(t, err)
		assert.Equal(t, user.ID, retrieved.ID)
	})

	t.Run("Not found", func(t *testing.T) {
		_, err := s.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestUserStorage_UpdateUser(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s)

	user.Username = "renamed"
	user.Role = models.RoleAdmin
	user.IsActive = false
	require.NoError(t, s.UpdateUser(ctx, user))

	retrieved, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", retrieved.Username)
	assert.Equal(t, models.RoleAdmin, retrieved.Role)
	assert.False(t, retrieved.IsActive)

	t.Run("Taken username", func(t *testing.T) {
		other := createTestUser(t, ctx, s)
		other.Username = "RENAMED"
		err := s.UpdateUser(ctx, other)
		assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
	})

	t.Run("Unknown user", func(t *testing.T) {
		ghost := &models.User{ID: uuid.New().String(), Username: "ghost", Role: models.RoleUser}
		err := s.UpdateUser(ctx, ghost)
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestUserStorage_SetPasswordHash(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s)

	require.NoError(t, s.SetPasswordHash(ctx, user.ID, "new-hash"))

	retrieved, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", retrieved.PasswordHash)

	err = s.SetPasswordHash(ctx, "no-such-id", "hash")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserStorage_DeleteUser_Cascade(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s)
	session := createTestSession(t, ctx, s, user.ID)
	refresh := createTestRefreshToken(t, ctx, s, user.ID, session.Token)
	apiToken := createTestAPIToken(t, ctx, s, user.ID)

	require.NoError(t, s.DeleteUser(ctx, user.ID))

	_, err := s.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	// Зависимые строки удалены каскадом
	_, err = s.GetSession(ctx, session.Token)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)

	_, err = s.GetRefreshToken(ctx, refresh.Token)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)

	_, err = s.GetAPITokenByHash(ctx, apiToken.TokenHash)
	assert.ErrorIs(t, err, storage.ErrTokenNotFound)
}

func TestUserStorage_ListUsers(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	createTestUser(t, ctx, s)
	createTestUser(t, ctx, s)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestUserStorage_UpdateLastLogin(t *testing.T) {
	ctx := context.Background()
	s, cleanup := setupTestStorage(t)
	defer cleanup()

	user := createTestUser(t, ctx, s)
	require.Nil(t, user.LastLogin)

	now := time.Now()
	require.NoError(t, s.UpdateLastLogin(ctx, user.ID, now))

	retrieved, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.LastLogin)
	assert.WithinDuration(t, now, *retrieved.LastLogin, time.Second)
}
