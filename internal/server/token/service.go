// Package token implements issuance, rotation and validation of login
// tokens (access + refresh + session) and API tokens.
package token

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
	"github.com/iudanet/authkeeper/internal/server/jwt"
	"github.com/iudanet/authkeeper/internal/server/storage"
)

// Service выпускает, ротирует и проверяет токены
type Service struct {
	logger    *slog.Logger
	jwt       *jwt.Service
	users     storage.UserStorage
	sessions  storage.SessionStorage
	refresh   storage.RefreshTokenStorage
	apiTokens storage.APITokenStorage

	sessionTTL time.Duration
	refreshTTL time.Duration
}

// LoginTokens is the credential set minted for one login (or rotation;
// the session token then stays the same).
type LoginTokens struct {
	AccessToken  string
	RefreshToken string
	SessionToken string
	ExpiresIn    int64
}

// CreatedAPIToken carries the raw token value alongside its record.
// The raw value exists only in this struct, exactly once.
type CreatedAPIToken struct {
	Token  string
	Record *models.APIToken
}

// NewService creates a new token service
func NewService(
	logger *slog.Logger,
	jwtService *jwt.Service,
	users storage.UserStorage,
	sessions storage.SessionStorage,
	refresh storage.RefreshTokenStorage,
	apiTokens storage.APITokenStorage,
	sessionTTL, refreshTTL time.Duration,
) *Service {
	return &Service{
		logger:     logger,
		jwt:        jwtService,
		users:      users,
		sessions:   sessions,
		refresh:    refresh,
		apiTokens:  apiTokens,
		sessionTTL: sessionTTL,
		refreshTTL: refreshTTL,
	}
}

// newOpaqueToken генерирует случайный токен (32 байта, base64)
func newOpaqueToken() (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(tokenBytes), nil
}

// hashToken хеширует API токен для хранения (SHA256, hex)
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueLoginTokens creates a new session, the root of its refresh chain
// and a signed access token referencing the session.
func (s *Service) IssueLoginTokens(ctx context.Context, user *models.User) (*LoginTokens, error) {
	now := time.Now()

	sessionToken, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		Token:     sessionToken,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	refreshValue, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}

	refreshToken := &models.RefreshToken{
		ID:           uuid.New().String(),
		Token:        refreshValue,
		UserID:       user.ID,
		SessionToken: sessionToken,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.refreshTTL),
	}
	if err := s.refresh.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	accessToken, expiresIn, err := s.jwt.Generate(user, sessionToken)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "login tokens issued",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))

	return &LoginTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshValue,
		SessionToken: sessionToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// Rotate exchanges a refresh token for a fresh access + refresh pair.
// A refresh token authorizes exactly one exchange: presenting an already
// used token is treated as credential theft and revokes the whole
// session. A token past its expiry is a normal timeout and leaves the
// session intact.
func (s *Service) Rotate(ctx context.Context, refreshValue string) (*LoginTokens, error) {
	old, err := s.refresh.GetRefreshToken(ctx, refreshValue)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, auth.ErrTokenExpired
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	now := time.Now()

	if old.Used {
		s.revokeOnReplay(ctx, old)
		return nil, auth.ErrReplayDetected
	}

	if now.After(old.ExpiresAt) {
		return nil, auth.ErrTokenExpired
	}

	session, err := s.sessions.GetSession(ctx, old.SessionToken)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, auth.ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.Revoked || now.After(session.ExpiresAt) {
		return nil, auth.ErrSessionRevoked
	}

	user, err := s.users.GetUserByID(ctx, old.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, auth.ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, auth.ErrSessionRevoked
	}

	successorValue, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}

	successor := &models.RefreshToken{
		ID:           uuid.New().String(),
		Token:        successorValue,
		UserID:       old.UserID,
		SessionToken: old.SessionToken,
		IssuedAt:     now,
		ExpiresAt:    now.Add(s.refreshTTL),
	}

	// Атомарная точка: пометить старый токен использованным и вставить
	// преемника в одной транзакции. Проигравший гонку получает ErrTokenUsed.
	if err := s.refresh.RotateRefreshToken(ctx, old.ID, successor); err != nil {
		if errors.Is(err, storage.ErrTokenUsed) {
			s.revokeOnReplay(ctx, old)
			return nil, auth.ErrReplayDetected
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	accessToken, expiresIn, err := s.jwt.Generate(user, old.SessionToken)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	s.logger.InfoContext(ctx, "refresh token rotated",
		slog.String("user_id", user.ID))

	return &LoginTokens{
		AccessToken:  accessToken,
		RefreshToken: successorValue,
		SessionToken: old.SessionToken,
		ExpiresIn:    expiresIn,
	}, nil
}

// revokeOnReplay отзывает сессию после повторного предъявления refresh
// токена. Событие безопасности: логируется здесь, клиенту уходит
// неотличимый от истекшего токена ответ.
func (s *Service) revokeOnReplay(ctx context.Context, token *models.RefreshToken) {
	s.logger.WarnContext(ctx, "refresh token replay detected, revoking session",
		slog.String("user_id", token.UserID),
		slog.String("refresh_token_id", token.ID))

	if err := s.sessions.RevokeSession(ctx, token.SessionToken); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke session after replay",
			slog.String("user_id", token.UserID), slog.Any("error", err))
	}
}

// Validate resolves an access token into an AuthContext.
// Order of checks: signature and structure (Malformed), expiry (Expired),
// then the referenced session (SessionRevoked). sessionHeader, when
// supplied, must match the session embedded in the token.
func (s *Service) Validate(ctx context.Context, accessToken, sessionHeader string) (*auth.AuthContext, error) {
	claims, err := s.jwt.Validate(accessToken)
	if err != nil {
		return nil, err
	}

	if sessionHeader != "" && sessionHeader != claims.SessionToken {
		return nil, auth.ErrMalformedToken
	}

	session, err := s.sessions.GetSession(ctx, claims.SessionToken)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, auth.ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session.Revoked || time.Now().After(session.ExpiresAt) {
		return nil, auth.ErrSessionRevoked
	}

	return &auth.AuthContext{
		UserID:       claims.UserID,
		Username:     claims.Username,
		Role:         claims.Role,
		SessionToken: claims.SessionToken,
	}, nil
}

// ValidateStateless resolves an access token into an AuthContext without
// consulting the session registry. Logout relies on this: revoking a
// session that is already revoked must still answer with success.
func (s *Service) ValidateStateless(ctx context.Context, accessToken, sessionHeader string) (*auth.AuthContext, error) {
	claims, err := s.jwt.Validate(accessToken)
	if err != nil {
		return nil, err
	}

	if sessionHeader != "" && sessionHeader != claims.SessionToken {
		return nil, auth.ErrMalformedToken
	}

	return &auth.AuthContext{
		UserID:       claims.UserID,
		Username:     claims.Username,
		Role:         claims.Role,
		SessionToken: claims.SessionToken,
	}, nil
}

// RevokeSession revokes the session (logout). Idempotent.
func (s *Service) RevokeSession(ctx context.Context, sessionToken string) error {
	if err := s.sessions.RevokeSession(ctx, sessionToken); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	s.logger.InfoContext(ctx, "session revoked")

	return nil
}

// CreateAPIToken mints a new API token for the user. The raw value is
// returned once and only its hash is stored.
func (s *Service) CreateAPIToken(ctx context.Context, userID, name string, expiresAt *time.Time) (*CreatedAPIToken, error) {
	if name == "" {
		return nil, fmt.Errorf("token name cannot be empty")
	}

	rawToken, err := newOpaqueToken()
	if err != nil {
		return nil, err
	}

	record := &models.APIToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		TokenHash: hashToken(rawToken),
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}

	if err := s.apiTokens.CreateAPIToken(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create api token: %w", err)
	}

	s.logger.InfoContext(ctx, "api token created",
		slog.String("user_id", userID),
		slog.String("token_id", record.ID),
		slog.String("name", name))

	return &CreatedAPIToken{Token: rawToken, Record: record}, nil
}

// ValidateAPIToken resolves a raw API token into an AuthContext.
// Unknown, revoked and expired tokens are indistinguishable to the
// caller. The last-used timestamp update is best-effort and never blocks
// the request.
func (s *Service) ValidateAPIToken(ctx context.Context, rawToken string) (*auth.AuthContext, error) {
	record, err := s.apiTokens.GetAPITokenByHash(ctx, hashToken(rawToken))
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get api token: %w", err)
	}

	if record.Revoked || record.Expired(time.Now()) {
		return nil, auth.ErrInvalidToken
	}

	user, err := s.users.GetUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, auth.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, auth.ErrInvalidToken
	}

	go func() {
		updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.apiTokens.UpdateAPITokenLastUsed(updateCtx, record.ID, time.Now()); err != nil {
			s.logger.WarnContext(updateCtx, "failed to update api token last used",
				slog.String("token_id", record.ID), slog.Any("error", err))
		}
	}()

	return &auth.AuthContext{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}

// ListAPITokens retrieves all API tokens of the user
func (s *Service) ListAPITokens(ctx context.Context, userID string) ([]*models.APIToken, error) {
	tokens, err := s.apiTokens.ListUserAPITokens(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api tokens: %w", err)
	}
	return tokens, nil
}

// RevokeAPIToken revokes an API token owned by the user
func (s *Service) RevokeAPIToken(ctx context.Context, tokenID, userID string) error {
	if err := s.apiTokens.RevokeAPIToken(ctx, tokenID, userID); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return auth.ErrNotFound
		}
		return fmt.Errorf("failed to revoke api token: %w", err)
	}

	s.logger.InfoContext(ctx, "api token revoked",
		slog.String("user_id", userID),
		slog.String("token_id", tokenID))

	return nil
}

// DeleteExpired removes expired sessions and refresh tokens.
// Called periodically by the server.
func (s *Service) DeleteExpired(ctx context.Context) error {
	sessions, err := s.sessions.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	tokens, err := s.refresh.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	if sessions > 0 || tokens > 0 {
		s.logger.InfoContext(ctx, "expired credentials cleaned up",
			slog.Int("sessions", sessions),
			slog.Int("refresh_tokens", tokens))
	}

	return nil
}
