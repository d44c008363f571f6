package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks transport failures and backend 5xx responses.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized marks a rejected or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials marks a rejected login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNeedsVerification marks a login rejected because the account has
	// not completed email verification. Routed differently from
	// ErrInvalidCredentials by callers.
	ErrNeedsVerification = errors.New("account pending email verification")
	// ErrTokenInvalid marks a verification or reset token the backend
	// rejected as unknown, used, or expired.
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// APIError is a backend-originated failure. Base is one of the sentinel
// errors above (or nil for unclassified statuses) so callers can use
// errors.Is; Message is the backend's own text, carried verbatim.
type APIError struct {
	Status            int
	Message           string
	NeedsVerification bool
	Base              error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Base != nil {
		return e.Base.Error()
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Base
}

// ErrorMessage returns the backend's message for err, or fallback when the
// backend provided none. The core never fabricates a specific message where
// the backend was silent.
func ErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
