package models

import "time"

// Role определяет уровень доступа пользователя
type Role string

const (
	// RoleUser обычный пользователь
	RoleUser Role = "user"
	// RoleAdmin администратор, включает все права RoleUser
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Includes reports whether a holder of this role has at least the
// permissions of required. Admin implies user, never the other way around.
func (r Role) Includes(required Role) bool {
	if r == RoleAdmin {
		return true
	}
	return r == required
}

// User представляет учетную запись в системе
type User struct {
	ID           string     `json:"id"`            // UUID пользователя
	Username     string     `json:"username"`      // уникальный username (case-insensitive)
	PasswordHash string     `json:"-"`             // bcrypt хеш пароля
	Role         Role       `json:"role"`          // "user" или "admin"
	IsActive     bool       `json:"is_active"`     // false = soft-deleted
	CreatedAt    time.Time  `json:"created_at"`    // время создания
	LastLogin    *time.Time `json:"last_login"`    // время последнего входа, nil если не входил
}

// Session представляет один логический вход (например, один браузер).
// Все access/refresh токены, выпущенные под сессией, становятся
// недействительными после ее отзыва.
type Session struct {
	Token     string    `json:"token"`      // opaque random, primary key
	UserID    string    `json:"user_id"`    // ID пользователя
	CreatedAt time.Time `json:"created_at"` // время создания
	ExpiresAt time.Time `json:"expires_at"` // абсолютный срок жизни
	Revoked   bool      `json:"revoked"`    // терминальное состояние
}

// RefreshToken представляет одноразовый refresh token.
// Token хранится как есть и используется как ключ поиска; после успешной
// ротации Used становится true и SupersededBy указывает на преемника.
type RefreshToken struct {
	ID           string    `json:"id"`            // UUID токена
	Token        string    `json:"token"`         // opaque random, уникальный
	UserID       string    `json:"user_id"`       // ID пользователя
	SessionToken string    `json:"session_token"` // сессия, к которой привязана цепочка
	IssuedAt     time.Time `json:"issued_at"`     // время выпуска
	ExpiresAt    time.Time `json:"expires_at"`    // время истечения
	Used         bool      `json:"used"`          // true после ротации, терминально
	SupersededBy *string   `json:"superseded_by"` // ID преемника, nil пока не ротирован
}

// APIToken представляет долгоживущий токен для программного доступа.
// Сырое значение показывается один раз при создании, хранится только хеш.
type APIToken struct {
	ID         string     `json:"id"`           // UUID токена
	UserID     string     `json:"user_id"`      // владелец
	Name       string     `json:"name"`         // человекочитаемое имя
	TokenHash  string     `json:"-"`            // SHA256 хеш значения
	CreatedAt  time.Time  `json:"created_at"`   // время создания
	LastUsedAt *time.Time `json:"last_used_at"` // время последнего использования
	ExpiresAt  *time.Time `json:"expires_at"`   // nil = бессрочный
	Revoked    bool       `json:"revoked"`      // терминальное состояние
}

// Expired reports whether the token has a deadline and it has passed.
func (t *APIToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
