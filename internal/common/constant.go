package common

const (
	// RefreshTokenCookieName is the cookie carrying the raw refresh token.
	RefreshTokenCookieName = "refreshToken"

	// AuthorizationHeaderName carries "Bearer <access token>" on task routes.
	AuthorizationHeaderName = "Authorization"

	// RequestIDHeaderName is echoed back on every response.
	RequestIDHeaderName = "X-Request-ID"
)
