// Package common contains shared constants and sentinel errors used across
// member service components.
package common

// TokenCookieName is the cookie the browser login flow stores the service
// token in. The Authorization header takes precedence over it.
const TokenCookieName = "token"

// RequestIDHeaderName carries the per-request id on requests and responses.
const RequestIDHeaderName = "X-Request-ID"
