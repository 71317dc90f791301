package users

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

type fakeUserStorage struct {
	users map[string]*models.User // by ID
}

func newFakeUserStorage() *fakeUserStorage {
	return &fakeUserStorage{users: make(map[string]*models.User)}
}

func (f *fakeUserStorage) CreateUser(_ context.Context, user *models.User) error {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, user.Username) {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserStorage) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStorage) ListUsers(_ context.Context) ([]*models.User, error) {
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUserStorage) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	for id, u := range f.users {
		if id != user.ID && strings.EqualFold(u.Username, user.Username) {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStorage) SetPasswordHash(_ context.Context, userID, passwordHash string) error {
	u, ok := f.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStorage) DeleteUser(_ context.Context, userID string) error {
	if _, ok := f.users[userID]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserStorage) UpdateLastLogin(_ context.Context, userID string, lastLogin time.Time) error {
	u, ok := f.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.LastLogin = &lastLogin
	return nil
}

// fakeRevoker считает вызовы отзыва сессий и API токенов
type fakeRevoker struct {
	sessionsRevoked  []string
	apiTokensRevoked []string
}

func (f *fakeRevoker) CreateSession(_ context.Context, _ *models.Session) error { return nil }

func (f *fakeRevoker) GetSession(_ context.Context, _ string) (*models.Session, error) {
	return nil, storage.ErrSessionNotFound
}

func (f *fakeRevoker) RevokeSession(_ context.Context, _ string) error { return nil }

func (f *fakeRevoker) RevokeUserSessions(_ context.Context, userID string) (int, error) {
	f.sessionsRevoked = append(f.sessionsRevoked, userID)
	return 1, nil
}

func (f *fakeRevoker) DeleteExpiredSessions(_ context.Context) (int, error) { return 0, nil }

func (f *fakeRevoker) CreateAPIToken(_ context.Context, _ *models.APIToken) error { return nil }

func (f *fakeRevoker) GetAPITokenByHash(_ context.Context, _ string) (*models.APIToken, error) {
	return nil, storage.ErrTokenNotFound
}

func (f *fakeRevoker) ListUserAPITokens(_ context.Context, _ string) ([]*models.APIToken, error) {
	return nil, nil
}

func (f *fakeRevoker) RevokeAPIToken(_ context.Context, _, _ string) error { return nil }

func (f *fakeRevoker) RevokeUserAPITokens(_ context.Context, userID string) (int, error) {
	f.apiTokensRevoked = append(f.apiTokensRevoked, userID)
	return 1, nil
}

func (f *fakeRevoker) UpdateAPITokenLastUsed(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStorage, *fakeRevoker) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newFakeUserStorage()
	revoker := &fakeRevoker{}

	svc, err := NewService(logger, store, revoker, revoker)
	require.NoError(t, err)

	return svc, store, revoker
}

func TestCreate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)

	// Хранится bcrypt хеш, не пароль
	assert.NotEqual(t, "password123", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password123")))
}

func TestCreate_Validation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		role     models.Role
	}{
		{"Short username", "ab", "password123", models.RoleUser},
		{"Invalid characters", "alice!", "password123", models.RoleUser},
		{"Short password", "alice", "12345", models.RoleUser},
		{"Invalid role", "alice", "password123", models.Role("superuser")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.username, tt.password, tt.role)
			assert.Error(t, err)
		})
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)

	// Дубликат без учета регистра
	_, err = svc.Create(ctx, "ALICE", "password456", models.RoleUser)
	assert.ErrorIs(t, err, auth.ErrDuplicateUsername)
}

func TestVerify(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)

	t.Run("Correct password", func(t *testing.T) {
		user, err := svc.Verify(ctx, "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, created.ID, user.ID)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, err := svc.Verify(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("Unknown username", func(t *testing.T) {
		_, err := svc.Verify(ctx, "nobody", "password123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})

	t.Run("Deactivated account", func(t *testing.T) {
		inactive := false
		_, err := svc.Update(ctx, created.ID, UpdatePatch{IsActive: &inactive})
		require.NoError(t, err)

		_, err = svc.Verify(ctx, "alice", "password123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestUpdate_DeactivationRevokesCredentials(t *testing.T) {
	svc, _, revoker := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, user.ID, UpdatePatch{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	assert.Equal(t, []string{user.ID}, revoker.sessionsRevoked)
	assert.Equal(t, []string{user.ID}, revoker.apiTokensRevoked)
}

func TestUpdate_RoleChange(t *testing.T) {
	svc, _, revoker := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)

	admin := models.RoleAdmin
	updated, err := svc.Update(ctx, user.ID, UpdatePatch{Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)

	// Смена роли без деактивации не трогает сессии
	assert.Empty(t, revoker.sessionsRevoked)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	admin := models.RoleAdmin
	_, err := svc.Update(context.Background(), "no-such-id", UpdatePatch{Role: &admin})
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)

	t.Run("Wrong old password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "wrong", "newpassword")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

		// Старый пароль все еще действует
		_, err = svc.Verify(ctx, "alice", "password123")
		require.NoError(t, err)
	})

	t.Run("Weak new password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "password123", "123")
		assert.Error(t, err)
	})

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, svc.ChangePassword(ctx, user.ID, "password123", "newpassword"))

		_, err := svc.Verify(ctx, "alice", "newpassword")
		require.NoError(t, err)

		_, err = svc.Verify(ctx, "alice", "password123")
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	})
}

func TestResetPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)

	// Старый пароль не нужен
	require.NoError(t, svc.ResetPassword(ctx, user.ID, "resetpassword"))

	_, err = svc.Verify(ctx, "alice", "resetpassword")
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, "no-such-id", "resetpassword")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc, _, revoker := newTestService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))

	// Учетные данные отозваны до удаления записи
	assert.Equal(t, []string{user.ID}, revoker.sessionsRevoked)
	assert.Equal(t, []string{user.ID}, revoker.apiTokensRevoked)

	_, err = svc.Get(ctx, user.ID)
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestList(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "password123", models.RoleUser)
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", "password123", models.RoleAdmin)
	require.NoError(t, err)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
