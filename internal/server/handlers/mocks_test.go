package handlers

import (
	"context"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/token"
	"github.com/iudanet/authkeeper/internal/server/users"
)

type mockUserService struct {
	verifyFunc          func(ctx context.Context, username, password string) (*models.User, error)
	createFunc          func(ctx context.Context, username, password string, role models.Role) (*models.User, error)
	getFunc             func(ctx context.Context, userID string) (*models.User, error)
	listFunc            func(ctx context.Context) ([]*models.User, error)
	updateFunc          func(ctx context.Context, userID string, patch users.UpdatePatch) (*models.User, error)
	changePasswordFunc  func(ctx context.Context, userID, oldPassword, newPassword string) error
	resetPasswordFunc   func(ctx context.Context, userID, newPassword string) error
	deleteFunc          func(ctx context.Context, userID string) error
	updateLastLoginFunc func(ctx context.Context, userID string, lastLogin time.Time) error
}

func (m *mockUserService) Verify(ctx context.Context, username, password string) (*models.User, error) {
	return m.verifyFunc(ctx, username, password)
}

func (m *mockUserService) Create(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	return m.createFunc(ctx, username, password, role)
}

func (m *mockUserService) Get(ctx context.Context, userID string) (*models.User, error) {
	return m.getFunc(ctx, userID)
}

func (m *mockUserService) List(ctx context.Context) ([]*models.User, error) {
	return m.listFunc(ctx)
}

func (m *mockUserService) Update(ctx context.Context, userID string, patch users.UpdatePatch) (*models.User, error) {
	return m.updateFunc(ctx, userID, patch)
}

func (m *mockUserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return m.changePasswordFunc(ctx, userID, oldPassword, newPassword)
}

func (m *mockUserService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	return m.resetPasswordFunc(ctx, userID, newPassword)
}

func (m *mockUserService) Delete(ctx context.Context, userID string) error {
	return m.deleteFunc(ctx, userID)
}

func (m *mockUserService) UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error {
	if m.updateLastLoginFunc != nil {
		return m.updateLastLoginFunc(ctx, userID, lastLogin)
	}
	return nil
}

type mockTokenService struct {
	issueFunc          func(ctx context.Context, user *models.User) (*token.LoginTokens, error)
	rotateFunc         func(ctx context.Context, refreshValue string) (*token.LoginTokens, error)
	revokeSessionFunc  func(ctx context.Context, sessionToken string) error
	createAPIFunc      func(ctx context.Context, userID, name string, expiresAt *time.Time) (*token.CreatedAPIToken, error)
	listAPIFunc        func(ctx context.Context, userID string) ([]*models.APIToken, error)
	revokeAPITokenFunc func(ctx context.Context, tokenID, userID string) error
}

func (m *mockTokenService) IssueLoginTokens(ctx context.Context, user *models.User) (*token.LoginTokens, error) {
	return m.issueFunc(ctx, user)
}

func (m *mockTokenService) Rotate(ctx context.Context, refreshValue string) (*token.LoginTokens, error) {
	return m.rotateFunc(ctx, refreshValue)
}

func (m *mockTokenService) RevokeSession(ctx context.Context, sessionToken string) error {
	return m.revokeSessionFunc(ctx, sessionToken)
}

func (m *mockTokenService) CreateAPIToken(ctx context.Context, userID, name string, expiresAt *time.Time) (*token.CreatedAPIToken, error) {
	return m.createAPIFunc(ctx, userID, name, expiresAt)
}

func (m *mockTokenService) ListAPITokens(ctx context.Context, userID string) ([]*models.APIToken, error) {
	return m.listAPIFunc(ctx, userID)
}

func (m *mockTokenService) RevokeAPIToken(ctx context.Context, tokenID, userID string) error {
	return m.revokeAPITokenFunc(ctx, tokenID, userID)
}
