package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/authkeeper/pkg/api"
)

// APITokenHandler обрабатывает операции над долгоживущими API токенами
type APITokenHandler struct {
	logger *slog.Logger
	tokens TokenService
}

// NewAPITokenHandler создает новый handler для API токенов
func NewAPITokenHandler(logger *slog.Logger, tokens TokenService) *APITokenHandler {
	return &APITokenHandler{
		logger: logger,
		tokens: tokens,
	}
}

// Create обрабатывает POST /api/v1/users/me/tokens
// Значение токена возвращается ровно один раз, дальше хранится только хеш
func (h *APITokenHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ac, ok := GetAuthContext(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.CreateAPITokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(h.logger, w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		sendError(h.logger, w, "name is required", http.StatusBadRequest)
		return
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		sendError(h.logger, w, "expires_at must be in the future", http.StatusBadRequest)
		return
	}

	created, err := h.tokens.CreateAPIToken(ctx, ac.UserID, req.Name, req.ExpiresAt)
	if err != nil {
		sendServiceError(h.logger, w, err)
		return
	}

	h.logger.InfoContext(ctx, "api token created",
		slog.String("user_id", ac.UserID),
		slog.String("token_id", created.Record.ID),
		slog.String("name", created.Record.Name))

	resp := api.CreateAPITokenResponse{
		Token:    created.Token,
		APIToken: apiTokenToAPI(created.Record),
	}

	sendJSON(h.logger, w, resp, http.StatusCreated)
}

// List обрабатывает GET /api/v1/users/me/tokens
func (h *APITokenHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ac, ok := GetAuthContext(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	list, err := h.tokens.ListAPITokens(ctx, ac.UserID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list api tokens", slog.Any("error", err))
		sendError(h.logger, w, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := make([]api.APIToken, 0, len(list))
	for _, t := range list {
		resp = append(resp, apiTokenToAPI(t))
	}

	sendJSON(h.logger, w, resp, http.StatusOK)
}

// Revoke обрабатывает DELETE /api/v1/users/me/tokens/{id}
// Отзывать можно только собственные токены
func (h *APITokenHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ac, ok := GetAuthContext(ctx)
	if !ok {
		sendError(h.logger, w, "authentication required", http.StatusUnauthorized)
		return
	}

	tokenID := r.PathValue("id")

	if err := h.tokens.RevokeAPIToken(ctx, tokenID, ac.UserID); err != nil {
		sendServiceError(h.logger, w, err)
		return
	}

	h.logger.InfoContext(ctx, "api token revoked",
		slog.String("user_id", ac.UserID),
		slog.String("token_id", tokenID))

	w.WriteHeader(http.StatusNoContent)
}
