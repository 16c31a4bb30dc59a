package services

import "errors"

// Error taxonomy shared by every operation. Callers classify with
// errors.Is; the wrapped message carries the detail.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
)
