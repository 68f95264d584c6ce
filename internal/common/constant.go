package common

// Default name and prefix of the header carrying the bearer token.
const (
	AuthTokenHeaderName   = "auth-token"
	AuthTokenHeaderPrefix = "Bearer "
)
