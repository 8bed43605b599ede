package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports an unknown student, ledger row, notification, user...
type NotFoundError struct {
	msg string
}

func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{msg: msg}
}

func (err NotFoundError) Error() string {
	return err.msg
}

// ConflictError reports a write that collides with existing state (duplicate account, stale version).
type ConflictError struct {
	msg string
}

func NewConflictError(msg string) *ConflictError {
	return &ConflictError{msg: msg}
}

func (err ConflictError) Error() string {
	return err.msg
}

// ExternalServiceError wraps a failure of a collaborator such as the payment gateway.
// Rejected is set when the service answered but refused the operation (eg. signature mismatch).
type ExternalServiceError struct {
	Service  string
	Err      error
	Rejected bool
}

func NewExternalServiceError(service string, err error, rejected bool) error {
	return &ExternalServiceError{Service: service, Err: err, Rejected: rejected}
}

func (err ExternalServiceError) Error() string {
	if err.Err == nil {
		return err.Service + ": failure"
	}
	return err.Err.Error()
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
