package inbox_errors

import "errors"

// Common errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrEmptyDraft         = errors.New("draft has no text or attachment")
	ErrSendPending        = errors.New("a send is already in flight")
	ErrNotMessageOwner    = errors.New("not the message owner")
	ErrNotConfirmed       = errors.New("destructive action not confirmed")
	ErrSuperseded         = errors.New("superseded by a newer command")
)
