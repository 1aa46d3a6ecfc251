package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that a user with this username already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrEmailAlreadyExists indicates that a user with this email already exists
	ErrEmailAlreadyExists = errors.New("email already taken")

	// ErrTokenNotFound indicates that an auth token record was not found
	ErrTokenNotFound = errors.New("auth token not found")

	// ErrSessionNotFound indicates that a session was not found or has expired
	ErrSessionNotFound = errors.New("session not found")
)
