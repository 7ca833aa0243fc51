package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrTransport - network or decode failure talking to the backend (fallback turn + notification)
	ErrTransport = errors.New("transport error")

	// ErrApplication - backend answered but declared failure (success:false, error field, non-2xx)
	ErrApplication = errors.New("application error")

	// ErrAuthorization - identity mismatch on record access (abort flow and redirect)
	ErrAuthorization = errors.New("authorization error")

	// ErrValidation - required local field missing before submit (no network attempt)
	ErrValidation = errors.New("validation error")

	// ErrInvalidInput - caller passed unusable input (blank message, unknown field)
	ErrInvalidInput = errors.New("invalid input")

	// ErrBusy - a request is already in flight for this session
	ErrBusy = errors.New("request in flight")

	// ErrNotFound - resource not found
	ErrNotFound = errors.New("not found")

	// ErrTransient - upstream temporarily unavailable (model down, timeout, rate limit)
	ErrTransient = errors.New("transient error")

	// ErrInvalidModelOutput - model returned malformed structured output
	ErrInvalidModelOutput = errors.New("invalid model output")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)
