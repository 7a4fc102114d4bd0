package pkgerror

import (
	"fmt"
	"net/http"
)

// Type classifies errors into high-level buckets used by the application.
type Type int

const (
	TypeServer     Type = iota // Server-side errors (e.g., IO or encoding issues).
	TypePolicy                 // Policy errors (e.g., read-only mode).
	TypeValidation             // Validation errors (e.g., malformed request body).
	TypeStorage                // Errors signaled by the storage layer.
)

func (t Type) String() string {
	switch t {
	case TypeValidation:
		return "ERROR_TYPE_VALIDATION"
	case TypePolicy:
		return "ERROR_TYPE_POLICY"
	case TypeStorage:
		return "ERROR_TYPE_STORAGE"
	case TypeServer:
		return "ERROR_TYPE_SERVER"
	default:
		return "ERROR_TYPE_UNKNOWN"
	}
}

// Code is a stable identifier used for mapping errors to HTTP status codes.
type Code int

const (
	CodeInternal      Code = iota // Internal or unspecified error.
	CodeInvalidFormat             // Request body or route target is malformed.
	CodeNotFound                  // Resource, collection, or item not found.
	CodeConflict                  // Storage rejected a mutation (e.g., duplicate id).
	CodeForbidden                 // Mutation refused by policy (read-only mode).
)

func (c Code) String() string {
	switch c {
	case CodeInvalidFormat:
		return "ERROR_CODE_INVALID_FORMAT"
	case CodeNotFound:
		return "ERROR_CODE_NOT_FOUND"
	case CodeConflict:
		return "ERROR_CODE_CONFLICT"
	case CodeForbidden:
		return "ERROR_CODE_FORBIDDEN"
	case CodeInternal:
		return "ERROR_CODE_INTERNAL"
	default:
		return "ERROR_CODE_INTERNAL"
	}
}

// Error is a structured error used across the application.
//
// It can wrap an underlying error while also carrying a user-facing message,
// a high-level type, and a stable error code.
type Error struct {
	err     error
	msg     string
	errType Type
	code    Code
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.err != nil {
		return e.err.Error()
	}

	if e.msg != "" {
		return e.msg
	}

	return "Unknown error"
}

// String returns a verbose representation of the error for debugging/logging.
func (e *Error) String() string {
	return fmt.Sprintf(
		"Error Type: %s, Code: %s, Message: %s, Underlying Error: %v",
		e.errType.String(),
		e.code.String(),
		e.msg,
		e.err,
	)
}

// Msg returns the user-facing error message, if set.
func (e *Error) Msg() string {
	return e.msg
}

// Type returns the high-level error type.
func (e *Error) Type() Type {
	return e.errType
}

// Code returns the stable error code.
func (e *Error) Code() Code {
	return e.code
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

// StatusCode maps the error code to an HTTP status code.
//
// Storage conflicts map to 400 rather than 409: the HTTP contract downgrades
// every storage fault to a client error carrying the storage message.
func (e *Error) StatusCode() int {
	switch e.code {
	case CodeInvalidFormat:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func newError(err error, msg string, et Type, code Code) error {
	return &Error{err: err, msg: msg, errType: et, code: code}
}

// NewServer creates a server-type error with the provided underlying error.
func NewServer(err error) error {
	return newError(err, "Internal server error", TypeServer, CodeInternal)
}

// NewInvalidFormat creates a validation error with the specified message.
func NewInvalidFormat(msg string) error {
	return newError(nil, msg, TypeValidation, CodeInvalidFormat)
}

// NewNotFound creates a not-found error with the specified message.
func NewNotFound(msg string) error {
	return newError(nil, msg, TypeValidation, CodeNotFound)
}

// NewForbidden creates a policy error with the specified message.
func NewForbidden(msg string) error {
	return newError(nil, msg, TypePolicy, CodeForbidden)
}

// NewConflict creates a storage conflict error with the specified message.
func NewConflict(msg string) error {
	return newError(nil, msg, TypeStorage, CodeConflict)
}

// NewStorage wraps an arbitrary storage failure, keeping its message text.
func NewStorage(err error) error {
	msg := "Request could not be completed"
	if err != nil {
		msg = err.Error()
	}
	return newError(err, msg, TypeStorage, CodeConflict)
}
