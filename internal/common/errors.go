// Package common defines shared constants and sentinel errors used across
// the member service layers. Callers should use errors.Is to match the
// sentinels and StatusOf / errors.As to inspect a *ServiceError.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorNoRowsChanged = errors.New("no rows changed")

	// Uniqueness violations on registration and profile updates.
	ErrUsernameTaken = errors.New("username already in use")
	ErrEmailTaken    = errors.New("email already in use")
)
