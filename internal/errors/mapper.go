package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorMapper maps external errors to the eventcorner error taxonomy
type ErrorMapper interface {
	MapError(err error) error
	MapStatus(status int, message string) error
	Category(err error) string
}

// DefaultErrorMapper implements the eventcorner error taxonomy mapping
type DefaultErrorMapper struct{}

// NewDefaultErrorMapper creates a new error mapper
func NewDefaultErrorMapper() *DefaultErrorMapper {
	return &DefaultErrorMapper{}
}

// MapError maps raw errors (mostly from net/http and model SDKs) to categories
func (m *DefaultErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}

	// Propagate context cancellation as-is
	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timeout: %w", ErrTransient)
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "not found"), strings.Contains(errStr, "does not exist"):
		return fmt.Errorf("resource not found: %w", ErrNotFound)

	case strings.Contains(errStr, "permission denied"), strings.Contains(errStr, "unauthorized"), strings.Contains(errStr, "forbidden"):
		return fmt.Errorf("access denied: %w", ErrAuthorization)

	case strings.Contains(errStr, "rate limit"), strings.Contains(errStr, "quota"), strings.Contains(errStr, "too many requests"):
		return fmt.Errorf("rate limited: %w", ErrTransient)

	case strings.Contains(errStr, "invalid input"), strings.Contains(errStr, "invalid request"), strings.Contains(errStr, "bad request"):
		return fmt.Errorf("invalid request: %w", ErrInvalidInput)

	case strings.Contains(errStr, "invalid model output"), strings.Contains(errStr, "malformed json"), strings.Contains(errStr, "invalid json"):
		return fmt.Errorf("invalid model output: %w", ErrInvalidModelOutput)

	case strings.Contains(errStr, "timeout"), strings.Contains(errStr, "deadline exceeded"):
		return fmt.Errorf("request timeout: %w", ErrTransient)

	case strings.Contains(errStr, "network"), strings.Contains(errStr, "connection"), strings.Contains(errStr, "unreachable"), strings.Contains(errStr, "11434"):
		return fmt.Errorf("network error: %w", ErrTransient)

	default:
		return fmt.Errorf("internal error: %w", ErrInternal)
	}
}

// MapStatus maps a non-success HTTP status from the backend to a category.
// Every mapped error also matches ErrApplication.
func (m *DefaultErrorMapper) MapStatus(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	se := &StatusError{Status: status, Message: message}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		se.category = ErrAuthorization
	case status == http.StatusNotFound:
		se.category = ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		se.category = ErrInvalidInput
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		se.category = ErrTransient
	default:
		se.category = ErrInternal
	}
	return se
}

// Category returns the category name for an error
func (m *DefaultErrorMapper) Category(err error) string {
	return Category(err)
}

// StatusError is a non-success backend response.
type StatusError struct {
	Status   int
	Message  string
	category error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// Is reports ErrApplication for every status error, plus the mapped category.
func (e *StatusError) Is(target error) bool {
	if target == ErrApplication {
		return true
	}
	return e.category != nil && target == e.category
}

// Category returns the category name for an error
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return "ErrValidation"
	case errors.Is(err, ErrAuthorization):
		return "ErrAuthorization"
	case errors.Is(err, ErrBusy):
		return "ErrBusy"
	case errors.Is(err, ErrInvalidInput):
		return "ErrInvalidInput"
	case errors.Is(err, ErrNotFound):
		return "ErrNotFound"
	case errors.Is(err, ErrTransient):
		return "ErrTransient"
	case errors.Is(err, ErrTransport):
		return "ErrTransport"
	case errors.Is(err, ErrApplication):
		return "ErrApplication"
	case errors.Is(err, ErrInvalidModelOutput):
		return "ErrInvalidModelOutput"
	case errors.Is(err, ErrInternal):
		return "ErrInternal"
	default:
		return "Unknown"
	}
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// WrapWithCategory wraps an error with a specific category, keeping the cause in the chain
func WrapWithCategory(err error, message string, category error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w: %w", message, category, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// IsRequestFailure reports whether err is a transport or application failure,
// the two categories handled identically by the chat sessions.
func IsRequestFailure(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrApplication)
}

// NotFound wraps error as not found
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// Authorization wraps error as authorization failure
func Authorization(message string) error {
	return fmt.Errorf("%s: %w", message, ErrAuthorization)
}

// Validation wraps error as validation failure
func Validation(message string) error {
	return fmt.Errorf("%s: %w", message, ErrValidation)
}

// InvalidInput wraps error as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Busy wraps error as busy
func Busy(message string) error {
	return fmt.Errorf("%s: %w", message, ErrBusy)
}

// Transport wraps error as transport failure
func Transport(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransport)
}

// Application wraps error as application failure
func Application(message string) error {
	return fmt.Errorf("%s: %w", message, ErrApplication)
}

// Transient wraps error as transient
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// InvalidModelOutput wraps error as invalid model output
func InvalidModelOutput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidModelOutput)
}
