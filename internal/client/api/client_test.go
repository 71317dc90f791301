package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/authkeeper/pkg/api"
)

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Username)

		resp := api.LoginResponse{
			AccessToken:  "access",
			RefreshToken: "refresh",
			SessionToken: "session",
			ExpiresIn:    900,
			User:         api.User{ID: "user-1", Username: "alice", Role: "user"},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Login(context.Background(), api.LoginRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "session", resp.SessionToken)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestClient_SendsCredentialHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		assert.Equal(t, "session-token", r.Header.Get("X-Session-Token"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.User{ID: "user-1", Username: "alice"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	client.SetCredentials("access-token", "session-token")

	_, err := client.Me(context.Background())
	require.NoError(t, err)
}

func TestClient_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{
			Error:   "Unauthorized",
			Message: "invalid or expired token",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Me(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "invalid or expired token")
}

func TestClient_ServerErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{
			Error:   "Conflict",
			Message: "username already taken",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.CreateUser(context.Background(), api.CreateUserRequest{Username: "bob", Password: "password123"})
	require.Error(t, err)
	assert.False(t, IsUnauthorized(err))
	assert.Contains(t, err.Error(), "username already taken")
}

func TestClient_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.RefreshRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "old-refresh", req.RefreshToken)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    900,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "new-access", resp.AccessToken)
	assert.Equal(t, "new-refresh", resp.RefreshToken)
}

func TestClient_NoContentResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	require.NoError(t, client.Logout(ctx))
	require.NoError(t, client.DeleteUser(ctx, "user-1"))
	require.NoError(t, client.RevokeAPIToken(ctx, "token-1"))
	require.NoError(t, client.ChangePassword(ctx, "old", "newpassword"))
}
