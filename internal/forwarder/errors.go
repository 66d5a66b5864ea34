package forwarder

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
)

// ErrorReason classifies why a forward failed.
type ErrorReason int

const (
	ErrorNone ErrorReason = iota
	ErrorDestinationUnreachable
	ErrorTimedOut
	ErrorRequestBody
	ErrorResponseBody
	ErrorRequestCanceled
)

// ErrTimedOut is the cause recorded when the destination does not produce
// response headers within the configured timeout.
var ErrTimedOut = errors.New("timed out waiting for destination response")

func (r ErrorReason) String() string {
	switch r {
	case ErrorNone:
		return "none"
	case ErrorDestinationUnreachable:
		return "destination-unreachable"
	case ErrorTimedOut:
		return "timed-out"
	case ErrorRequestBody:
		return "request-body-error"
	case ErrorResponseBody:
		return "response-body-error"
	case ErrorRequestCanceled:
		return "request-canceled"
	default:
		return "unknown"
	}
}

// MarshalText lets reasons appear by name in JSON snapshots and log output.
func (r ErrorReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// StatusCode is the status reported to the caller when the response has not
// been started yet.
func (r ErrorReason) StatusCode() int {
	switch r {
	case ErrorNone:
		return http.StatusOK
	case ErrorTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// Error describes a failed forward.
type Error struct {
	Reason      ErrorReason
	Destination string
	Err         error

	abort bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("forward to %s failed (%s): %v", e.Destination, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ShouldAbort reports whether the response was already started when the
// failure happened. The caller's connection must then be aborted, typically
// by panicking with http.ErrAbortHandler, so a truncated body is never
// mistaken for a complete one.
func (e *Error) ShouldAbort() bool {
	return e.abort
}

// ErrorHandler writes the caller-facing response for a failed forward. It is
// only invoked while the response has not been started.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, ferr *Error)

// WriteError is the default ErrorHandler: a plain text 502, or 504 on timeout.
func WriteError(w http.ResponseWriter, _ *http.Request, ferr *Error) {
	http.Error(w, errorMessage(ferr), ferr.Reason.StatusCode())
}

func errorMessage(ferr *Error) string {
	switch ferr.Reason {
	case ErrorDestinationUnreachable:
		if errors.Is(ferr.Err, syscall.ECONNREFUSED) {
			return fmt.Sprintf("SPA development server is not running at %s.", ferr.Destination)
		}
		return fmt.Sprintf("Could not reach SPA development server at %s: %v", ferr.Destination, ferr.Err)
	case ErrorTimedOut:
		return fmt.Sprintf("SPA development server at %s did not respond in time.", ferr.Destination)
	case ErrorRequestBody:
		return "Failed to relay request body to SPA development server."
	case ErrorRequestCanceled:
		return "Request canceled."
	default:
		return fmt.Sprintf("Proxying to SPA development server failed: %v", ferr.Err)
	}
}
