package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("job is in a conflicting state")
	ErrRateLimited     = errors.New("rate limited")
	ErrNoGenerator     = errors.New("no text generator configured")
)
