package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/validation"
	"github.com/iudanet/authkeeper/pkg/api"
)

// SessionTokenHeader именует сессию при logout и сверяется с сессией
// внутри access token при валидации
const SessionTokenHeader = "X-Session-Token"

// AuthHandler обрабатывает запросы аутентификации
type AuthHandler struct {
	logger *slog.Logger
	users  UserService
	tokens TokenService
}

// NewAuthHandler создает новый handler для аутентификации
func NewAuthHandler(logger *slog.Logger, users UserService, tokens TokenService) *AuthHandler {
	return &AuthHandler{
		logger: logger,
		users:  users,
		tokens: tokens,
	}
}

// Login обрабатывает POST /api/v1/auth/login
// Проверяет пароль и выпускает {access, refresh, session} токены
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.users.Verify(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.logger.WarnContext(ctx, "login failed", slog.String("username", req.Username))
			sendError(h.logger, w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify credentials", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	tokens, err := h.tokens.IssueLoginTokens(ctx, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue login tokens", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Обновляем last_login; ошибка не прерывает вход
	now := time.Now()
	if err := h.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}
	user.LastLogin = &now

	h.logger.InfoContext(ctx, "user logged in",
		slog.String("username", user.Username),
		slog.String("user_id", user.ID))

	resp := api.LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		SessionToken: tokens.SessionToken,
		ExpiresIn:    tokens.ExpiresIn,
		User:         userToAPI(user),
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Refresh обрабатывает POST /api/v1/auth/refresh
// Одноразовая ротация refresh token
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.RefreshToken == "" {
		sendError(h.logger, w, "refresh_token is required", http.StatusBadRequest)
		return
	}

	tokens, err := h.tokens.Rotate(ctx, req.RefreshToken)
	if err != nil {
		sendServiceError(h.logger, w, err)
		return
	}

	resp := api.TokenResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Logout обрабатывает POST /api/v1/auth/logout
// Отзывает названную сессию. Идемпотентен: повторный выход из уже
// отозванной сессии тоже отвечает 204.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionToken := r.Header.Get(SessionTokenHeader)
	if sessionToken == "" && r.Body != nil {
		var req api.LogoutRequest
		// Тело необязательно, ошибки декодирования игнорируем
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			sessionToken = req.SessionToken
		}
	}
	if sessionToken == "" {
		if ac, ok := GetAuthContext(ctx); ok {
			sessionToken = ac.SessionToken
		}
	}

	if sessionToken == "" {
		sendError(h.logger, w, "session token is required", http.StatusBadRequest)
		return
	}

	if err := h.tokens.RevokeSession(ctx, sessionToken); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke session", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me обрабатывает GET /api/v1/auth/me
// Возвращает пользователя из AuthContext
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ac, ok := GetAuthContext(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	user, err := h.users.Get(ctx, ac.UserID)
	if err != nil {
		sendServiceError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, userToAPI(user), http.StatusOK)
}

// ChangePassword обрабатывает PUT /api/v1/users/me/password
// Смена своего пароля с проверкой старого
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ac, ok := GetAuthContext(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := validation.ValidatePassword(req.NewPassword); err != nil {
		sendError(h.logger, w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.users.ChangePassword(ctx, ac.UserID, req.OldPassword, req.NewPassword); err != nil {
		// Несовпадение старого пароля это 400, а не 401: запрос
		// аутентифицирован, неверен только ввод
		if errors.Is(err, auth.ErrInvalidCredentials) {
			sendError(h.logger, w, "old password does not match", http.StatusBadRequest)
			return
		}
		sendServiceError(h.logger, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
