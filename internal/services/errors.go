package services

import (
	"errors"
	"time"
)

type ErrorCode string

const (
	ErrorInvalid       ErrorCode = "invalid"
	ErrorUnauthorized  ErrorCode = "unauthorized"
	ErrorLocked        ErrorCode = "locked"
	ErrorNotConfigured ErrorCode = "not_configured"
	ErrorNotFound      ErrorCode = "not_found"
)

type ServiceError struct {
	Code    ErrorCode
	Message string

	// RemainingAttempts is set on wrong-secret rejections.
	RemainingAttempts int
	// RetryAfter is set on lockout rejections.
	RetryAfter time.Duration
}

func (e *ServiceError) Error() string { return e.Message }

func NewInvalidError(msg string) error  { return &ServiceError{Code: ErrorInvalid, Message: msg} }
func NewNotFoundError(msg string) error { return &ServiceError{Code: ErrorNotFound, Message: msg} }
func NewNotConfiguredError(msg string) error {
	return &ServiceError{Code: ErrorNotConfigured, Message: msg}
}

func NewWrongSecretError(msg string, remaining int) error {
	return &ServiceError{Code: ErrorUnauthorized, Message: msg, RemainingAttempts: remaining}
}

func NewLockedError(msg string, retryAfter time.Duration) error {
	return &ServiceError{Code: ErrorLocked, Message: msg, RetryAfter: retryAfter}
}

func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
