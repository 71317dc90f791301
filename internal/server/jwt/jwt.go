package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
)

const issuer = "authkeeper"

// Claims представляет JWT claims access токена.
// Токен stateless: все, что нужно для авторизации запроса, кроме статуса
// сессии, лежит в самом токене.
type Claims struct {
	UserID       string      `json:"user_id"`
	Username     string      `json:"username"`
	Role         models.Role `json:"role"`
	SessionToken string      `json:"session_token"`
	jwt.RegisteredClaims
}

// Service подписывает и проверяет access токены (HS256)
type Service struct {
	secret         []byte
	accessTokenTTL time.Duration
}

// NewService creates a new JWT service
// secret should be a cryptographically secure random string
func NewService(secret string, accessTokenTTL time.Duration) *Service {
	return &Service{
		secret:         []byte(secret),
		accessTokenTTL: accessTokenTTL,
	}
}

// Generate creates a signed access token for the user bound to the given
// session. Returns the token and its lifetime in seconds.
func (s *Service) Generate(user *models.User, sessionToken string) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTokenTTL)

	claims := Claims{
		UserID:       user.ID,
		Username:     user.Username,
		Role:         user.Role,
		SessionToken: sessionToken,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, int64(s.accessTokenTTL.Seconds()), nil
}

// Validate verifies the signature and expiry of an access token.
// Returns auth.ErrTokenExpired for a well-formed but expired token and
// auth.ErrMalformedToken for everything else; session state is checked
// by the caller.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", auth.ErrMalformedToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, auth.ErrMalformedToken
	}

	if claims.SessionToken == "" {
		return nil, auth.ErrMalformedToken
	}

	return claims, nil
}
