package auth

import "github.com/iudanet/authkeeper/internal/models"

// AuthContext представляет проверенную личность запроса.
// Передается явно через context.Context запроса, никогда не хранится
// в глобальном состоянии.
type AuthContext struct {
	UserID   string      `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`

	// SessionToken ссылается на сессию, выпустившую access token.
	// Пустой при аутентификации через API token.
	SessionToken string `json:"-"`
}

// Require checks that the holder has at least the permissions of the
// required role. Returns ErrForbidden otherwise.
func (c *AuthContext) Require(required models.Role) error {
	if c == nil || !c.Role.Includes(required) {
		return ErrForbidden
	}
	return nil
}
