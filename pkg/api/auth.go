package api

import "time"

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username"` // username пользователя
	Password string `json:"password"` // пароль
}

// LoginResponse представляет ответ на успешный вход
type LoginResponse struct {
	AccessToken  string `json:"access_token"`  // JWT access token
	RefreshToken string `json:"refresh_token"` // одноразовый refresh token
	SessionToken string `json:"session_token"` // токен сессии (для logout)
	ExpiresIn    int64  `json:"expires_in"`    // время жизни access token в секундах
	User         User   `json:"user"`          // данные пользователя
}

// RefreshRequest представляет запрос на ротацию refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse представляет ответ на успешную ротацию
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LogoutRequest представляет запрос на выход.
// Токен сессии можно передать и заголовком X-Session-Token.
type LogoutRequest struct {
	SessionToken string `json:"session_token,omitempty"`
}

// User представляет пользователя в ответах API (без хеша пароля)
type User struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// ChangePasswordRequest представляет запрос на смену своего пароля
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// CreateUserRequest представляет запрос на создание пользователя (admin)
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"` // "user" или "admin", по умолчанию "user"
}

// UpdateUserRequest представляет частичное обновление пользователя (admin).
// Незаполненные поля не меняются.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// ResetPasswordRequest представляет сброс пароля администратором
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// CreateAPITokenRequest представляет запрос на создание API токена
type CreateAPITokenRequest struct {
	Name      string     `json:"name"`                 // человекочитаемое имя
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // nil = бессрочный
}

// APIToken представляет API токен в ответах (без значения и хеша)
type APIToken struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Revoked    bool       `json:"revoked"`
}

// CreateAPITokenResponse содержит сырое значение токена.
// Значение показывается ровно один раз и нигде не сохраняется.
type CreateAPITokenResponse struct {
	Token    string   `json:"token"`
	APIToken APIToken `json:"api_token"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
