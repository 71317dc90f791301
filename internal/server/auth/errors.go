package auth

import "errors"

// Error taxonomy of the credential subsystem. Handlers map these to HTTP
// statuses; nothing below this layer knows about HTTP.
var (
	// ErrInvalidCredentials is returned for a wrong password, an unknown
	// username and a deactivated account alike, so callers cannot
	// distinguish the three.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateUsername indicates that the username is already taken
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrNotFound indicates that the requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrMalformedToken indicates a token that failed signature or
	// structural checks
	ErrMalformedToken = errors.New("malformed token")

	// ErrTokenExpired indicates a token past its expiry; the session it
	// belongs to is left intact
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionRevoked indicates that the session backing the token has
	// been revoked or has expired
	ErrSessionRevoked = errors.New("session revoked")

	// ErrReplayDetected indicates a second exchange attempt of a refresh
	// token. The whole session is revoked as a side effect; clients see a
	// generic expired-token response.
	ErrReplayDetected = errors.New("refresh token replay detected")

	// ErrForbidden indicates that the authenticated user lacks the
	// required role
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidToken indicates an unknown, revoked or expired API token
	ErrInvalidToken = errors.New("invalid token")
)
