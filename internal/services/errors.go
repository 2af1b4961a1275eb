package services

import "errors"

// Errors surfaced to request handlers. They are wrapped with context where
// they are raised; match them with errors.Is.
var (
	ErrDuplicateUsername  = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("could not validate credentials")
	ErrNotFound           = errors.New("book not found")
	ErrStorageFailure     = errors.New("storage failure")
	ErrInvalidFilename    = errors.New("invalid filename")
)
