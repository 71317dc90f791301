package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/handlers"
)

// APITokenHeader передает долгоживущий API токен
const APITokenHeader = "X-API-Token"

// Validator проверяет предъявленные учетные данные и возвращает личность вызывающего
type Validator interface {
	Validate(ctx context.Context, accessToken, sessionToken string) (*auth.AuthContext, error)
	ValidateAPIToken(ctx context.Context, rawToken string) (*auth.AuthContext, error)
}

// Auth создает middleware аутентификации.
// Bearer access token имеет приоритет: если заголовок Authorization
// присутствует, X-API-Token не рассматривается даже при ошибке.
func Auth(logger *slog.Logger, validator Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Ожидаем формат: "Bearer <token>"
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					logger.WarnContext(ctx, "invalid authorization header format")
					unauthorized(w, "invalid token format")
					return
				}

				ac, err := validator.Validate(ctx, parts[1], r.Header.Get(handlers.SessionTokenHeader))
				if err != nil {
					logger.WarnContext(ctx, "access token rejected", slog.Any("error", err))
					unauthorized(w, "invalid or expired token")
					return
				}

				next.ServeHTTP(w, r.WithContext(handlers.WithAuthContext(ctx, ac)))
				return
			}

			if apiToken := r.Header.Get(APITokenHeader); apiToken != "" {
				ac, err := validator.ValidateAPIToken(ctx, apiToken)
				if err != nil {
					logger.WarnContext(ctx, "api token rejected", slog.Any("error", err))
					unauthorized(w, "invalid token")
					return
				}

				next.ServeHTTP(w, r.WithContext(handlers.WithAuthContext(ctx, ac)))
				return
			}

			unauthorized(w, "missing credentials")
		})
	}
}

// StatelessValidator проверяет access token без обращения к реестру сессий
type StatelessValidator interface {
	ValidateStateless(ctx context.Context, accessToken, sessionToken string) (*auth.AuthContext, error)
}

// AuthStateless создает middleware аутентификации только по подписи и
// сроку access token. Нужен для logout: выход с уже отозванной сессией
// должен пройти, иначе повторный logout не идемпотентен.
// API токены здесь не принимаются, у них нет сессии.
func AuthStateless(logger *slog.Logger, validator StatelessValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				unauthorized(w, "missing credentials")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				logger.WarnContext(ctx, "invalid authorization header format")
				unauthorized(w, "invalid token format")
				return
			}

			ac, err := validator.ValidateStateless(ctx, parts[1], r.Header.Get(handlers.SessionTokenHeader))
			if err != nil {
				logger.WarnContext(ctx, "access token rejected", slog.Any("error", err))
				unauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithAuthContext(ctx, ac)))
		})
	}
}

// RequireRole создает middleware авторизации поверх Auth.
// Роль admin включает права роли user.
func RequireRole(logger *slog.Logger, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ac, ok := handlers.GetAuthContext(ctx)
			if !ok {
				unauthorized(w, "missing credentials")
				return
			}

			if err := ac.Require(role); err != nil {
				logger.WarnContext(ctx, "access denied",
					slog.String("user_id", ac.UserID),
					slog.String("role", string(ac.Role)),
					slog.String("required", string(role)))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	http.Error(w, "Unauthorized: "+msg, http.StatusUnauthorized)
}
