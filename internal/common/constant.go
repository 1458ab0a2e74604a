// Package common contains shared constants and sentinel errors used across
// FlixKeeper components.
package common

const (
	// AuthorizationHeader carries the bearer credential on outbound requests.
	AuthorizationHeader = "Authorization"

	// RequestIDHeader tags each outbound request so client and server logs
	// can be correlated.
	RequestIDHeader = "X-Request-ID"

	// BearerPrefix precedes the token in the Authorization header value.
	BearerPrefix = "Bearer "
)
