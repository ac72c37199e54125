// Package auth authenticates callers: customers sign up and log in for a
// bearer token, and operators use HMAC-hashed API keys.
package auth

import "github.com/go-faster/errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidAPIKey      = errors.New("invalid api key")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrRoleNotAllowed     = errors.New("role cannot be chosen at signup")
)
