package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrSessionNotFound indicates that session was not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrTokenNotFound indicates that refresh or API token was not found
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenUsed indicates that a refresh token was already exchanged;
	// the conditional rotation update matched no rows
	ErrTokenUsed = errors.New("refresh token already used")
)
