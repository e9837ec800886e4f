package models

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("comment not found")
	ErrForbidden  = errors.New("not your comment")
	ErrConflict   = errors.New("comment was modified concurrently")
)

// ValidationError carries the message shown to the client; it matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
