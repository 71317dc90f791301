package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/users"
	"github.com/iudanet/authkeeper/internal/validation"
	"github.com/iudanet/authkeeper/pkg/api"
)

// UserHandler обрабатывает административные операции над пользователями
type UserHandler struct {
	logger *slog.Logger
	users  UserService
}

// NewUserHandler создает новый handler для управления пользователями
func NewUserHandler(logger *slog.Logger, users UserService) *UserHandler {
	return &UserHandler{
		logger: logger,
		users:  users,
	}
}

// Create обрабатывает POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		sendError(h.logger, w, "invalid role", http.StatusBadRequest)
		return
	}

	user, err := h.users.Create(ctx, req.Username, req.Password, role)
	if err != nil {
		if errors.Is(err, validation.ErrValidation) {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
		sendServiceError(h.logger, w, err)
		return
	}

	h.logger.InfoContext(ctx, "user created",
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)))

	sendJSON(h.logger, w, userToAPI(user), http.StatusCreated)
}

// List обрабатывает GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.users.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list users", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.User, 0, len(list))
	for _, u := range list {
		resp = append(resp, userToAPI(u))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Get обрабатывает GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := h.users.Get(ctx, r.PathValue("id"))
	if err != nil {
		sendServiceError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, userToAPI(user), http.StatusOK)
}

// Update обрабатывает PATCH /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	var req api.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	patch := users.UpdatePatch{
		Username: req.Username,
		IsActive: req.IsActive,
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		if !role.Valid() {
			sendError(h.logger, w, "invalid role", http.StatusBadRequest)
			return
		}
		patch.Role = &role
	}

	// Администратор не может деактивировать сам себя
	if ac, ok := GetAuthContext(ctx); ok && ac.UserID == userID {
		if patch.IsActive != nil && !*patch.IsActive {
			sendError(h.logger, w, "cannot deactivate own account", http.StatusBadRequest)
			return
		}
	}

	user, err := h.users.Update(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, validation.ErrValidation) {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
		sendServiceError(h.logger, w, err)
		return
	}

	sendJSON(h.logger, w, userToAPI(user), http.StatusOK)
}

// Delete обрабатывает DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	if ac, ok := GetAuthContext(ctx); ok && ac.UserID == userID {
		sendError(h.logger, w, "cannot delete own account", http.StatusBadRequest)
		return
	}

	if err := h.users.Delete(ctx, userID); err != nil {
		sendServiceError(h.logger, w, err)
		return
	}

	h.logger.InfoContext(ctx, "user deleted", slog.String("user_id", userID))

	w.WriteHeader(http.StatusNoContent)
}

// ResetPassword обрабатывает POST /api/v1/users/{id}/reset-password
// Сброс пароля администратором, старый пароль не требуется
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	var req api.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.users.ResetPassword(ctx, userID, req.NewPassword); err != nil {
		if errors.Is(err, validation.ErrValidation) {
			sendError(h.logger, w, err.Error(), http.StatusBadRequest)
			return
		}
		sendServiceError(h.logger, w, err)
		return
	}

	h.logger.InfoContext(ctx, "password reset", slog.String("user_id", userID))

	w.WriteHeader(http.StatusNoContent)
}
