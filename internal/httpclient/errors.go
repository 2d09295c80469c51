package httpclient

import (
	"errors"
	"fmt"
)

var (
	// ErrSuperseded is the cancellation cause of a request replaced by an
	// identical newer one.
	ErrSuperseded = errors.New("request superseded")
	// ErrCleared is the cancellation cause of requests dropped by a session
	// clear.
	ErrCleared = errors.New("pending requests cleared")
)

// RequestCancelledError is returned to a caller whose request was aborted by
// the de-duplication gate. It is not a failure and must not be reported as one.
type RequestCancelledError struct {
	Fingerprint string
	Cause       error
}

func (e *RequestCancelledError) Error() string {
	return fmt.Sprintf("request cancelled: %v", e.Cause)
}

func (e *RequestCancelledError) Unwrap() error { return e.Cause }

// AuthExpiredError reports a 401 from the upstream.
type AuthExpiredError struct {
	Message string
}

func (e *AuthExpiredError) Error() string {
	if e.Message == "" {
		return "authentication expired"
	}
	return "authentication expired: " + e.Message
}

// StatusError reports any other non-2xx upstream status.
type StatusError struct {
	Status  int
	Message string
	Body    any
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
}

// BusinessError reports a 2xx envelope whose code is not a success code.
type BusinessError struct {
	Code    any
	Message string
	Data    any
}

func (e *BusinessError) Error() string {
	return fmt.Sprintf("upstream code %v: %s", e.Code, e.Message)
}

// TransportError wraps network failures and timeouts.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsCancelled reports whether err means "superseded", not "failed".
func IsCancelled(err error) bool {
	var target *RequestCancelledError
	return errors.As(err, &target)
}

func IsAuthExpired(err error) bool {
	var target *AuthExpiredError
	return errors.As(err, &target)
}

// statusMessage is used when the upstream error body carries no message.
func statusMessage(status int) string {
	switch status {
	case 401:
		return "not signed in or session expired"
	case 403:
		return "permission denied"
	case 404:
		return "resource not found"
	case 500:
		return "internal server error"
	default:
		return fmt.Sprintf("request failed: %d", status)
	}
}
