// Package errors provides error types and handling for upload operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an upload operation error with context about the operation
// that failed. It wraps the underlying error with additional context for
// better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "upload", "issueCredential")
	Op string

	// Key is the object key or file name involved (if applicable)
	Key string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("uploader.%s %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("uploader.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// Sentinel errors for upload operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrAuthentication indicates that no bearer token is available or the
	// backend rejected the one presented
	ErrAuthentication = errors.New("uploader: authentication failed")

	// ErrCredentialRequest indicates that the backend refused to issue an
	// upload credential
	ErrCredentialRequest = errors.New("uploader: credential request failed")

	// ErrTransport indicates a failure while transferring bytes to the
	// object store
	ErrTransport = errors.New("uploader: transport failed")

	// ErrSizeLimit indicates that the file exceeds the caller-supplied
	// maximum size
	ErrSizeLimit = errors.New("uploader: size limit exceeded")

	// ErrRegistration indicates that the storage write succeeded but the
	// metadata registration with the backend failed
	ErrRegistration = errors.New("uploader: metadata registration failed")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("uploader: invalid input")
)

// IsAuthentication checks if an error indicates an authentication failure.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsCredentialRequest checks if an error indicates a refused credential request.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsCredentialRequest(err error) bool {
	return errors.Is(err, ErrCredentialRequest)
}

// IsTransport checks if an error indicates a byte-transfer failure.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsSizeLimit checks if an error indicates the size limit precheck failed.
func IsSizeLimit(err error) bool {
	return errors.Is(err, ErrSizeLimit)
}

// IsRegistration checks if an error indicates a failed metadata registration.
// The uploaded storage object is left in place when this is returned.
func IsRegistration(err error) bool {
	return errors.Is(err, ErrRegistration)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
