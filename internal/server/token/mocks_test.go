package token

import (
	"context"
	"sync"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// In-memory хранилища для тестов. Защищены мьютексом: ValidateAPIToken
// пишет last_used из отдельной горутины.

type fakeUserStorage struct {
	mu    sync.Mutex
	users map[string]*models.User // by ID
}

func newFakeUserStorage() *fakeUserStorage {
	return &fakeUserStorage{users: make(map[string]*models.User)}
}

func (f *fakeUserStorage) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == user.Username {
			return storage.ErrUserAlreadyExists
		}
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStorage) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserStorage) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStorage) ListUsers(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.User, 0, len(f.users))
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUserStorage) UpdateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStorage) SetPasswordHash(_ context.Context, userID, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (f *fakeUserStorage) DeleteUser(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, userID)
	return nil
}

func (f *fakeUserStorage) UpdateLastLogin(_ context.Context, userID string, lastLogin time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.LastLogin = &lastLogin
	return nil
}

type fakeSessionStorage struct {
	mu       sync.Mutex
	sessions map[string]*models.Session // by token
}

func newFakeSessionStorage() *fakeSessionStorage {
	return &fakeSessionStorage{sessions: make(map[string]*models.Session)}
}

func (f *fakeSessionStorage) CreateSession(_ context.Context, session *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *session
	f.sessions[session.Token] = &cp
	return nil
}

func (f *fakeSessionStorage) GetSession(_ context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStorage) RevokeSession(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[token]; ok {
		s.Revoked = true
	}
	return nil
}

func (f *fakeSessionStorage) RevokeUserSessions(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID && !s.Revoked {
			s.Revoked = true
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionStorage) DeleteExpiredSessions(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	n := 0
	for token, s := range f.sessions {
		if now.After(s.ExpiresAt) {
			delete(f.sessions, token)
			n++
		}
	}
	return n, nil
}

type fakeRefreshTokenStorage struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken // by ID
}

func newFakeRefreshTokenStorage() *fakeRefreshTokenStorage {
	return &fakeRefreshTokenStorage{tokens: make(map[string]*models.RefreshToken)}
}

func (f *fakeRefreshTokenStorage) SaveRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.tokens[token.ID] = &cp
	return nil
}

func (f *fakeRefreshTokenStorage) GetRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, storage.ErrTokenNotFound
}

func (f *fakeRefreshTokenStorage) RotateRefreshToken(_ context.Context, oldID string, successor *models.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.tokens[oldID]
	if !ok || old.Used {
		return storage.ErrTokenUsed
	}
	old.Used = true
	old.SupersededBy = &successor.ID
	cp := *successor
	f.tokens[successor.ID] = &cp
	return nil
}

func (f *fakeRefreshTokenStorage) DeleteUserRefreshTokens(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for id, t := range f.tokens {
		if t.UserID == userID {
			delete(f.tokens, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRefreshTokenStorage) DeleteExpiredRefreshTokens(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	n := 0
	for id, t := range f.tokens {
		if now.After(t.ExpiresAt) {
			delete(f.tokens, id)
			n++
		}
	}
	return n, nil
}

type fakeAPITokenStorage struct {
	mu     sync.Mutex
	tokens map[string]*models.APIToken // by ID
}

func newFakeAPITokenStorage() *fakeAPITokenStorage {
	return &fakeAPITokenStorage{tokens: make(map[string]*models.APIToken)}
}

func (f *fakeAPITokenStorage) CreateAPIToken(_ context.Context, token *models.APIToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.tokens[token.ID] = &cp
	return nil
}

func (f *fakeAPITokenStorage) GetAPITokenByHash(_ context.Context, tokenHash string) (*models.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.TokenHash == tokenHash {
			cp := *t
			return &cp, nil
		}
	}
	return nil, storage.ErrTokenNotFound
}

func (f *fakeAPITokenStorage) ListUserAPITokens(_ context.Context, userID string) ([]*models.APIToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.APIToken, 0)
	for _, t := range f.tokens {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAPITokenStorage) RevokeAPIToken(_ context.Context, tokenID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[tokenID]
	if !ok || t.UserID != userID {
		return storage.ErrTokenNotFound
	}
	t.Revoked = true
	return nil
}

func (f *fakeAPITokenStorage) RevokeUserAPITokens(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (f *fakeAPITokenStorage) UpdateAPITokenLastUsed(_ context.Context, tokenID string, usedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[tokenID]
	if !ok {
		return storage.ErrTokenNotFound
	}
	t.LastUsedAt = &usedAt
	return nil
}
