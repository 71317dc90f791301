package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authkeeper/internal/models"
	"github.com/iudanet/authkeeper/internal/server/auth"
)

func testUser() *models.User {
	return &models.User{
		ID:       "user-1",
		Username: "alice",
		Role:     models.RoleUser,
		IsActive: true,
	}
}

func TestGenerateValidateRoundtrip(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute)

	token, expiresIn, err := svc.Generate(testUser(), "session-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, int64(900), expiresIn)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "session-1", claims.SessionToken)
	assert.Equal(t, "authkeeper", claims.Issuer)
}

func TestValidateExpiredToken(t *testing.T) {
	// Отрицательный TTL дает уже истекший токен
	svc := NewService("test-secret", -1*time.Minute)

	token, _, err := svc.Generate(testUser(), "session-1")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestValidateMalformedToken(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "empty", token: ""},
		{name: "truncated", token: "eyJhbGciOiJIUzI1NiJ9.e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, auth.ErrMalformedToken)
		})
	}
}

func TestValidateWrongSecret(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute)
	other := NewService("other-secret", 15*time.Minute)

	token, _, err := svc.Generate(testUser(), "session-1")
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrMalformedToken)
}

func TestValidateMissingSessionToken(t *testing.T) {
	svc := NewService("test-secret", 15*time.Minute)

	token, _, err := svc.Generate(testUser(), "")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrMalformedToken)
}
