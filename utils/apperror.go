package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an AppError for transport mapping.
type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindNotFound        ErrorKind = "not_found"
	KindConflict        ErrorKind = "conflict"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindGateway         ErrorKind = "gateway"
	KindInternal        ErrorKind = "internal"
)

// AppError is the error type every service returns for caller-visible failures.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind ErrorKind, err error, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func ValidationError(format string, args ...any) *AppError {
	return newAppError(KindValidation, nil, format, args...)
}

func NotFoundError(format string, args ...any) *AppError {
	return newAppError(KindNotFound, nil, format, args...)
}

func ConflictError(format string, args ...any) *AppError {
	return newAppError(KindConflict, nil, format, args...)
}

func AuthenticationError(format string, args ...any) *AppError {
	return newAppError(KindUnauthenticated, nil, format, args...)
}

func AuthorizationError(format string, args ...any) *AppError {
	return newAppError(KindForbidden, nil, format, args...)
}

// GatewayError wraps a failure reported by an external collaborator (payment gateway, object store).
func GatewayError(err error, format string, args ...any) *AppError {
	return newAppError(KindGateway, err, format, args...)
}

func InternalError(err error, format string, args ...any) *AppError {
	return newAppError(KindInternal, err, format, args...)
}

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries an AppError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
