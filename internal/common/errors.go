// Package common defines shared constants and sentinel errors used across
// taskkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Credential errors. Unknown user and wrong password share one value.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Access token errors (invalid signature, malformed, expired).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Refresh token lifecycle errors. Not found, revoked and expired tokens
	// all surface as ErrInvalidRefreshToken.
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrRefreshTokenReuse is joined with ErrInvalidRefreshToken when a
	// consumed or expired token is presented again. It is for logs and
	// metrics only and must not change what the client sees.
	ErrRefreshTokenReuse = errors.New("refresh token reuse detected")
)
