package auth

import "errors"

var (
	// ErrInvalidCredentials covers every authentication failure: unknown
	// username, wrong password, malformed/expired/rotated-away refresh
	// token. Callers must not be able to tell which check failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrForbidden means the identity is valid but lacks a required
	// permission.
	ErrForbidden = errors.New("auth: forbidden")

	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
)
