package apperr

import "errors"

// Sentinel errors for the caller-facing failure taxonomy. Services wrap
// these with fmt.Errorf("...: %w", ...) so handlers can route on errors.Is
// while still surfacing a distinct, actionable message.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTarget     = errors.New("invalid target")
	ErrConflict          = errors.New("conflict")
	ErrValidation        = errors.New("validation failed")
	ErrRemoteUnavailable = errors.New("backend unavailable")
)
