// Package api implements the HTTP client used by the CLI.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iudanet/authkeeper/pkg/api"
)

// StatusError несет HTTP статус неуспешного ответа сервера
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Code, e.Message)
}

// IsUnauthorized reports whether err is a 401 response.
// The auth service uses it to decide when to refresh.
func IsUnauthorized(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string

	accessToken  string
	sessionToken string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetCredentials устанавливает токены для последующих запросов
func (c *Client) SetCredentials(accessToken, sessionToken string) {
	c.accessToken = accessToken
	c.sessionToken = sessionToken
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResponse, error) {
	var resp api.LoginResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обменивает refresh token на новую пару токенов
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	req := api.RefreshRequest{RefreshToken: refreshToken}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/refresh", req, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает текущую сессию на сервере
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// Me возвращает профиль текущего пользователя
func (c *Client) Me(ctx context.Context) (*api.User, error) {
	var resp api.User
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/auth/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp, nil
}

// ChangePassword меняет пароль текущего пользователя
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	req := api.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	if err := c.doRequest(ctx, http.MethodPut, "/api/v1/users/me/password", req, nil); err != nil {
		return fmt.Errorf("change password request failed: %w", err)
	}
	return nil
}

// CreateUser создает пользователя (admin)
func (c *Client) CreateUser(ctx context.Context, req api.CreateUserRequest) (*api.User, error) {
	var resp api.User
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/users", req, &resp); err != nil {
		return nil, fmt.Errorf("create user request failed: %w", err)
	}
	return &resp, nil
}

// ListUsers возвращает всех пользователей (admin)
func (c *Client) ListUsers(ctx context.Context) ([]api.User, error) {
	var resp []api.User
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/users", nil, &resp); err != nil {
		return nil, fmt.Errorf("list users request failed: %w", err)
	}
	return resp, nil
}

// GetUser возвращает пользователя по ID (admin)
func (c *Client) GetUser(ctx context.Context, userID string) (*api.User, error) {
	var resp api.User
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/users/"+userID, nil, &resp); err != nil {
		return nil, fmt.Errorf("get user request failed: %w", err)
	}
	return &resp, nil
}

// UpdateUser изменяет пользователя (admin)
func (c *Client) UpdateUser(ctx context.Context, userID string, req api.UpdateUserRequest) (*api.User, error) {
	var resp api.User
	if err := c.doRequest(ctx, http.MethodPatch, "/api/v1/users/"+userID, req, &resp); err != nil {
		return nil, fmt.Errorf("update user request failed: %w", err)
	}
	return &resp, nil
}

// DeleteUser удаляет пользователя (admin)
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/v1/users/"+userID, nil, nil); err != nil {
		return fmt.Errorf("delete user request failed: %w", err)
	}
	return nil
}

// ResetPassword сбрасывает пароль пользователя (admin)
func (c *Client) ResetPassword(ctx context.Context, userID, newPassword string) error {
	req := api.ResetPasswordRequest{NewPassword: newPassword}
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/users/"+userID+"/reset-password", req, nil); err != nil {
		return fmt.Errorf("reset password request failed: %w", err)
	}
	return nil
}

// CreateAPIToken создает API токен текущего пользователя
func (c *Client) CreateAPIToken(ctx context.Context, req api.CreateAPITokenRequest) (*api.CreateAPITokenResponse, error) {
	var resp api.CreateAPITokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/users/me/tokens", req, &resp); err != nil {
		return nil, fmt.Errorf("create api token request failed: %w", err)
	}
	return &resp, nil
}

// ListAPITokens возвращает API токены текущего пользователя
func (c *Client) ListAPITokens(ctx context.Context) ([]api.APIToken, error) {
	var resp []api.APIToken
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/users/me/tokens", nil, &resp); err != nil {
		return nil, fmt.Errorf("list api tokens request failed: %w", err)
	}
	return resp, nil
}

// RevokeAPIToken отзывает API токен текущего пользователя
func (c *Client) RevokeAPIToken(ctx context.Context, tokenID string) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/v1/users/me/tokens/"+tokenID, nil, nil); err != nil {
		return fmt.Errorf("revoke api token request failed: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	if c.sessionToken != "" {
		req.Header.Set("X-Session-Token", c.sessionToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{Code: resp.StatusCode, Message: string(respBody)}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
			statusErr.Message = errResp.Message
		}
		return statusErr
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
