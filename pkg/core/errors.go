package core

import "errors"

// Common errors.
var (
	ErrEmptyID    = errors.New("note ID cannot be empty")
	ErrNoToken    = errors.New("login response did not contain a token")
	ErrClosed     = errors.New("store is closed")
	ErrNilStorage = errors.New("credential storage is required")
	ErrNilAPI     = errors.New("notes API is required")
)
