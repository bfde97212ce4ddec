// Package errors provides typed, wrapped operational errors used across
// the ingestion and processing pipeline, built on top of go-faster/errors
// for stack-trace-aware wrapping.
package errors

import (
	"fmt"

	gferrors "github.com/go-faster/errors"
)

// OperationError describes a failure in terms of what was being attempted,
// which component attempted it, and on what resource, so logs and alerts
// read the same way regardless of which layer produced the error.
type OperationError struct {
	Operation string
	Component string
	Resource  string
	Cause     error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("failed to %s", e.Operation)
	if e.Component != "" {
		msg += fmt.Sprintf(", component: %s", e.Component)
	}
	if e.Resource != "" {
		msg += fmt.Sprintf(", resource: %s", e.Resource)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(", cause: %v", e.Cause)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// FailedTo builds an OperationError for a bare operation/component pair.
func FailedTo(operation, component string, cause error) *OperationError {
	return &OperationError{Operation: operation, Component: component, Cause: cause}
}

// FailedToWithDetails builds an OperationError that also names the resource
// involved.
func FailedToWithDetails(operation, component, resource string, cause error) *OperationError {
	return &OperationError{Operation: operation, Component: component, Resource: resource, Cause: cause}
}

// Wrapf wraps err with a formatted message using go-faster/errors, which
// preserves a stack trace for later inspection.
func Wrapf(err error, format string, args ...interface{}) error {
	return gferrors.Wrapf(err, format, args...)
}

// Chain wraps a sequence of errors into a single error, in order. Nil
// entries are skipped. Returns nil if every entry is nil.
func Chain(errs ...error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	wrapped := nonNil[0]
	for _, e := range nonNil[1:] {
		wrapped = gferrors.Wrapf(wrapped, "%v", e)
	}
	return wrapped
}

type errorKind int

const (
	kindDatabase errorKind = iota
	kindNetwork
	kindValidation
	kindConfiguration
	kindTimeout
	kindAuthentication
	kindAuthorization
	kindParse
)

// kindedError carries a classification used by IsRetryable to decide
// whether a caller should retry the failed operation.
type kindedError struct {
	kind  errorKind
	inner *OperationError
}

func (e *kindedError) Error() string { return e.inner.Error() }
func (e *kindedError) Unwrap() error { return e.inner }

func newKinded(kind errorKind, operation, component string, cause error) error {
	return &kindedError{kind: kind, inner: FailedTo(operation, component, cause)}
}

// DatabaseError classifies a failure against a datastore. Retryable.
func DatabaseError(operation, component string, cause error) error {
	return newKinded(kindDatabase, operation, component, cause)
}

// NetworkError classifies a failure reaching a remote collaborator. Retryable.
func NetworkError(operation, component string, cause error) error {
	return newKinded(kindNetwork, operation, component, cause)
}

// ValidationError classifies a failure validating caller-supplied data.
// Not retryable: the input itself is the problem.
func ValidationError(operation, component string, cause error) error {
	return newKinded(kindValidation, operation, component, cause)
}

// ConfigurationError classifies a failure loading or applying configuration.
// Not retryable without operator intervention.
func ConfigurationError(operation, component string, cause error) error {
	return newKinded(kindConfiguration, operation, component, cause)
}

// TimeoutError classifies a failure caused by a deadline expiring. Retryable.
func TimeoutError(operation, component string, cause error) error {
	return newKinded(kindTimeout, operation, component, cause)
}

// AuthenticationError classifies a failure proving identity. Not retryable
// without new credentials.
func AuthenticationError(operation, component string, cause error) error {
	return newKinded(kindAuthentication, operation, component, cause)
}

// AuthorizationError classifies a failure due to insufficient permissions.
// Not retryable without a permission change.
func AuthorizationError(operation, component string, cause error) error {
	return newKinded(kindAuthorization, operation, component, cause)
}

// ParseError classifies a failure decoding a payload. Not retryable: the
// payload itself is malformed.
func ParseError(operation, component string, cause error) error {
	return newKinded(kindParse, operation, component, cause)
}

// IsRetryable reports whether a caller should retry the operation that
// produced err. Unclassified errors are treated as not retryable.
func IsRetryable(err error) bool {
	var ke *kindedError
	if !gferrors.As(err, &ke) {
		return false
	}
	switch ke.kind {
	case kindDatabase, kindNetwork, kindTimeout:
		return true
	default:
		return false
	}
}
