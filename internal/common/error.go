package common

import (
	"errors"
	"net/http"
)

// Kind tags a ServiceError with the class of failure it represents.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindForbidden
	KindNotFound
)

// Status maps the kind onto the HTTP status code handlers respond with.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// ServiceError is the tagged error services hand back to the transport layer.
// Message is safe to show to clients; Err keeps the underlying cause for logs.
type ServiceError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Status returns the HTTP status code carried by the error kind.
func (e *ServiceError) Status() int { return e.Kind.Status() }

func NewValidationError(msg string) *ServiceError {
	return &ServiceError{Kind: KindValidation, Message: msg}
}

func NewUnauthenticatedError(msg string) *ServiceError {
	return &ServiceError{Kind: KindUnauthenticated, Message: msg}
}

func NewForbiddenError(msg string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, Message: msg}
}

func NewNotFoundError(msg string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Message: msg}
}

// NewInternalError wraps cause so it stays available to errors.Is and the logs.
func NewInternalError(msg string, cause error) *ServiceError {
	return &ServiceError{Kind: KindInternal, Message: msg, Err: cause}
}

// StatusOf returns the HTTP status for err, 500 when err is not a *ServiceError.
func StatusOf(err error) int {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Status()
	}
	return http.StatusInternalServerError
}
