package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/token"
	"github.com/iudanet/authkeeper/internal/server/users"
	"github.com/iudanet/authkeeper/pkg/api"
)

// contextKey тип для ключей контекста
type contextKey string

// authContextKey ключ для хранения AuthContext в контексте запроса
const authContextKey contextKey = "auth_context"

// WithAuthContext returns a copy of ctx carrying the authenticated
// identity. Used by the auth middleware and by tests.
func WithAuthContext(ctx context.Context, ac *auth.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// GetAuthContext извлекает AuthContext из контекста запроса
func GetAuthContext(ctx context.Context) (*auth.AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*auth.AuthContext)
	return ac, ok
}

// UserService defines the credential-store operations handlers depend on
type UserService interface {
	Verify(ctx context.Context, username, password string) (*models.User, error)
	Create(ctx context.Context, username, password string, role models.Role) (*models.User, error)
	Get(ctx context.Context, userID string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, userID string, patch users.UpdatePatch) (*models.User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	ResetPassword(ctx context.Context, userID, newPassword string) error
	Delete(ctx context.Context, userID string) error
	UpdateLastLogin(ctx context.Context, userID string, lastLogin time.Time) error
}

// TokenService defines the token operations handlers depend on
type TokenService interface {
	IssueLoginTokens(ctx context.Context, user *models.User) (*token.LoginTokens, error)
	Rotate(ctx context.Context, refreshValue string) (*token.LoginTokens, error)
	RevokeSession(ctx context.Context, sessionToken string) error
	CreateAPIToken(ctx context.Context, userID, name string, expiresAt *time.Time) (*token.CreatedAPIToken, error)
	ListAPITokens(ctx context.Context, userID string) ([]*models.APIToken, error)
	RevokeAPIToken(ctx context.Context, tokenID, userID string) error
}

// userToAPI конвертирует модель пользователя в ответ API
func userToAPI(u *models.User) api.User {
	return api.User{
		ID:        u.ID,
		Username:  u.Username,
		Role:      string(u.Role),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		LastLogin: u.LastLogin,
	}
}

// apiTokenToAPI конвертирует модель API токена в ответ API
func apiTokenToAPI(t *models.APIToken) api.APIToken {
	return api.APIToken{
		ID:         t.ID,
		Name:       t.Name,
		CreatedAt:  t.CreatedAt,
		LastUsedAt: t.LastUsedAt,
		ExpiresAt:  t.ExpiresAt,
		Revoked:    t.Revoked,
	}
}

// sendJSON отправляет JSON ответ
func sendJSON(logger *slog.Logger, w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(logger *slog.Logger, w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(logger, w, resp, statusCode)
}

// sendServiceError maps a service error to an HTTP response.
// ErrReplayDetected deliberately produces the same response as an
// expired token; the real reason never leaves the server.
func sendServiceError(logger *slog.Logger, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		sendError(logger, w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrTokenExpired), errors.Is(err, auth.ErrReplayDetected):
		sendError(logger, w, "invalid or expired token", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrSessionRevoked):
		sendError(logger, w, "session revoked", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrMalformedToken), errors.Is(err, auth.ErrInvalidToken):
		sendError(logger, w, "invalid token", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrForbidden):
		sendError(logger, w, "forbidden", http.StatusForbidden)
	case errors.Is(err, auth.ErrNotFound):
		sendError(logger, w, "not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrDuplicateUsername):
		sendError(logger, w, "username already taken", http.StatusConflict)
	default:
		logger.Error("internal error", slog.Any("error", err))
		sendError(logger, w, "internal server error", http.StatusInternalServerError)
	}
}
