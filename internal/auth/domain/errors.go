package domain

import "errors"

var (
	// ErrUserExists indicates a registration against an email that is already taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound indicates the user id or email does not resolve.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials indicates a failed email/password check.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrSessionNotFound indicates the refresh token resolves to no session.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates the refresh token's session has lapsed.
	ErrSessionExpired = errors.New("session expired")
)
