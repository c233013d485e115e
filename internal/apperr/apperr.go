package apperr

import "errors"

// Sentinel errors shared by services and handlers. Services return these (or
// wrap them); handlers translate them to HTTP status codes in one place.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid username/email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrForbidden          = errors.New("insufficient privileges")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrStorage            = errors.New("storage failure")
)
