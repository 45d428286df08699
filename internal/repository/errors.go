package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrDuplicateEmail indicates a normalized email collision on create.
	ErrDuplicateEmail = errors.New("repository: email already registered")
)
