package types

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable classification for operation failures
type ErrorKind string

const (
	// ErrDocumentParse marks malformed notebook JSON or a missing cells array
	ErrDocumentParse ErrorKind = "document_parse_error"
	// ErrCandidateInvalid marks an import candidate the reconciler rejected
	ErrCandidateInvalid ErrorKind = "candidate_invalid"
	// ErrFileRead marks an I/O failure reading a source document
	ErrFileRead ErrorKind = "file_read_error"
	// ErrConnection marks an unreachable server or rejected credentials
	ErrConnection ErrorKind = "connection_error"
	// ErrKernelUnavailable marks an execute attempt with no running kernel
	ErrKernelUnavailable ErrorKind = "kernel_unavailable"
	// ErrExecutionFailure marks an error output returned by the server
	ErrExecutionFailure ErrorKind = "execution_failure"
)

// Error is a typed operation failure. Kind is stable for matching and
// serialization; Message is human-readable; Cause carries the wrapped error.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause to errors.Is/As chains
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same kind
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// NewError creates a typed error
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a typed error with a formatted message
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a typed error wrapping a cause
func WrapError(kind ErrorKind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

// KindOf extracts the kind from an error chain
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
