// Package auth manages the client session: login, logout and transparent
// access token refresh.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/authkeeper/internal/client/api"
	"github.com/iudanet/authkeeper/internal/client/storage"
	"github.com/iudanet/authkeeper/internal/validation"
	pkgapi "github.com/iudanet/authkeeper/pkg/api"
)

// ErrNotLoggedIn возвращается, когда локально нет сохраненной сессии
var ErrNotLoggedIn = errors.New("not logged in")

// Service предоставляет функции авторизации
type Service struct {
	apiClient *api.Client
	authStore storage.AuthStorage
}

// NewService создает новый сервис авторизации
func NewService(apiClient *api.Client, authStore storage.AuthStorage) *Service {
	return &Service{
		apiClient: apiClient,
		authStore: authStore,
	}
}

// Login выполняет аутентификацию и сохраняет полученные токены
func (s *Service) Login(ctx context.Context, username, password string) (*storage.AuthData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	auth := &storage.AuthData{
		Username:     resp.User.Username,
		UserID:       resp.User.ID,
		Role:         resp.User.Role,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionToken: resp.SessionToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}

	if err := s.authStore.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	s.apiClient.SetCredentials(auth.AccessToken, auth.SessionToken)

	return auth, nil
}

// Logout отзывает сессию на сервере и удаляет локальные токены.
// Локальные данные удаляются даже если сервер недоступен.
func (s *Service) Logout(ctx context.Context) error {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotLoggedIn
		}
		return fmt.Errorf("failed to load auth data: %w", err)
	}

	s.apiClient.SetCredentials(auth.AccessToken, auth.SessionToken)

	var serverErr error
	if err := s.apiClient.Logout(ctx); err != nil {
		// 401 означает, что сессия уже мертва, это не ошибка выхода
		if !api.IsUnauthorized(err) {
			serverErr = err
		}
	}

	if err := s.authStore.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete auth data: %w", err)
	}

	s.apiClient.SetCredentials("", "")

	if serverErr != nil {
		return fmt.Errorf("local session cleared, server logout failed: %w", serverErr)
	}

	return nil
}

// Refresh обменивает сохраненный refresh token на новую пару токенов
// и сохраняет ее
func (s *Service) Refresh(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load auth data: %w", err)
	}

	resp, err := s.apiClient.Refresh(ctx, auth.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	auth.AccessToken = resp.AccessToken
	auth.RefreshToken = resp.RefreshToken
	auth.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	if err := s.authStore.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save refreshed tokens: %w", err)
	}

	s.apiClient.SetCredentials(auth.AccessToken, auth.SessionToken)

	return auth, nil
}

// Restore загружает сохраненную сессию и настраивает API клиент.
// Протухший access token обновляется сразу, чтобы следующий запрос
// не получил 401.
func (s *Service) Restore(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load auth data: %w", err)
	}

	if time.Now().After(auth.ExpiresAt) {
		refreshed, err := s.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		return refreshed, nil
	}

	s.apiClient.SetCredentials(auth.AccessToken, auth.SessionToken)

	return auth, nil
}

// Do выполняет запрос к API, прозрачно обновляя токены после 401.
// После повторного 401 сдаемся: сессия отозвана или истекла.
func (s *Service) Do(ctx context.Context, call func(ctx context.Context) error) error {
	if _, err := s.Restore(ctx); err != nil {
		return err
	}

	err := call(ctx)
	if err == nil || !api.IsUnauthorized(err) {
		return err
	}

	if _, err := s.Refresh(ctx); err != nil {
		return err
	}

	return call(ctx)
}

// Current возвращает сохраненную сессию без обращения к серверу
func (s *Service) Current(ctx context.Context) (*storage.AuthData, error) {
	auth, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("failed to load auth data: %w", err)
	}
	return auth, nil
}

// IsAuthenticated проверяет наличие живой локальной сессии
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.authStore.IsAuthenticated(ctx)
}
