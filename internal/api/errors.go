package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by where it happened, which decides how the
// caller reacts: preconditions and validation never reach the network,
// transport failures never produced a response, application failures are
// well-formed refusals, contract failures are responses of the wrong shape.
type Kind int

const (
	KindUnknown Kind = iota
	KindPrecondition
	KindValidation
	KindTransport
	KindApplication
	KindContract
)

// String returns the kind name used in logs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindApplication:
		return "application"
	case KindContract:
		return "contract"
	default:
		return "unknown"
	}
}

var (
	// ErrTokenMissing is returned by every state-changing operation
	// attempted before an anti-forgery token has been acquired.
	ErrTokenMissing = errors.New("csrf token is missing")

	// ErrNotJSON means the backend answered with a non-JSON body.
	ErrNotJSON = errors.New("server did not return a JSON response")

	// ErrNotArray means a collection endpoint answered with something
	// other than a JSON array.
	ErrNotArray = errors.New("expected a JSON array")
)

// Error is a classified failure of a backend operation.
type Error struct {
	Kind      Kind
	Op        string            // Operation, e.g. "POST /auth"
	Status    int               // HTTP status for application failures
	Message   string            // Server-provided message, if any
	Fields    map[string]string // Field errors for validation failures
	RequestID string            // X-Request-ID of the failed call, if one was sent
	Err       error
}

// Error implements error.
func (e *Error) Error() string {
	switch {
	case e.Kind == KindApplication && e.Message != "":
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	case e.Kind == KindApplication:
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s failure", e.Op, e.Kind)
	}
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Precondition reports an operation refused locally before any I/O.
func Precondition(op string, err error) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Err: err}
}

// Validation reports field errors found before submission.
func Validation(op string, fields map[string]string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields, Err: err}
}

// Transport reports a request that produced no response.
func Transport(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// Application reports a well-formed non-2xx response.
func Application(op string, status int, message string) *Error {
	return &Error{Kind: KindApplication, Op: op, Status: status, Message: message}
}

// Contract reports a response whose shape the client cannot use.
func Contract(op string, err error) *Error {
	return &Error{Kind: KindContract, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// MessageOf returns the server message carried by err, or "".
func MessageOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// RequestIDOf returns the request ID carried by err, or "".
func RequestIDOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.RequestID
	}
	return ""
}

// Result maps an error to a short metric label.
//
// Example:
//
//	middleware.IncrementAuthAttempts("login", api.Result(err))
func Result(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTokenMissing):
		return "no_token"
	case errors.Is(err, ErrNotJSON):
		return "not_json"
	}
	switch KindOf(err) {
	case KindValidation:
		return "invalid_input"
	case KindTransport:
		return "transport_error"
	case KindApplication:
		return "rejected"
	case KindContract:
		return "bad_response"
	default:
		return "error"
	}
}
