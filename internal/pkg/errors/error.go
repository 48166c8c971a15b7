// internal/pkg/errors/error.go
package xerrors

import (
	"errors"
	"fmt"
)

// Common reusable application errors
var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrLoginInFlight        = errors.New("a login attempt is already in progress")
	ErrSessionExpired       = errors.New("session expired or invalid")
	ErrNotConnected         = errors.New("realtime channel not connected")
)

// GenericMessage is the fallback shown when nothing better can be
// assembled from a failed request.
const GenericMessage = "unexpected error"

// Kind tags a normalized API error so downstream code never inspects
// transport-specific shapes.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindNetwork    Kind = "network"
	KindServer     Kind = "server"
	KindSocket     Kind = "socket"
)

// APIError is the single error shape the HTTP and realtime layers surface.
// Message is always resolved and human-readable.
type APIError struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []string
	cause   error
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// New builds a normalized API error.
func New(kind Kind, status int, message string) *APIError {
	if message == "" {
		message = GenericMessage
	}
	return &APIError{Kind: kind, Status: status, Message: message}
}

// WithCause attaches the underlying error for errors.Is/As chains.
func (e *APIError) WithCause(err error) *APIError {
	e.cause = err
	return e
}

// KindOf extracts the kind from an error chain, or "" when the error is
// not a normalized API error.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsAuth reports whether the error means the credential is no longer
// accepted and a forced logout is warranted.
func IsAuth(err error) bool {
	return KindOf(err) == KindAuth
}

// Wrap adds context to an error (similar to fmt.Errorf("%w")).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
