package domain

import "errors"

// Sentinel errors shared across services. Services wrap these with context via
// fmt.Errorf("...: %w", err); controllers dispatch on them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyRegistered = errors.New("already registered for this event")
)
