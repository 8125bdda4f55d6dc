// Package errs holds the error taxonomy shared by every module of the relay.
package errs

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation marks malformed or missing request fields. Never retried.
	ErrValidation = errors.New("validation error")
	// ErrStoreUnavailable marks a key-value or relational store failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStaleConnection is reported by push transports when the target
	// connection no longer exists.
	ErrStaleConnection = errors.New("connection gone")
	// ErrTransientDelivery is any push failure other than a gone connection.
	ErrTransientDelivery = errors.New("transient delivery error")
	// ErrConnectionNotFound is returned by reverse lookups of unknown connections.
	ErrConnectionNotFound = errors.New("connection not found")
	ErrInternal           = errors.New("internal error")
)

// StatusCode maps an error onto the response status the gateway should return.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConnectionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ValidationError carries the client-facing message of a rejected request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Validation(message string) error {
	return &ValidationError{Message: message}
}

// PublicMessage returns the client-facing message for validation errors and
// fallback for everything else.
func PublicMessage(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return fallback
}

// Public returns the sentinel that may be shown to callers in place of err,
// or nil when err carries nothing safe to expose.
func Public(err error) error {
	for _, sentinel := range []error{ErrStoreUnavailable, ErrConnectionNotFound, ErrInternal} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
