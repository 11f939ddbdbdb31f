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

func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ConflictError is returned when a whole-document save races a newer write
// on one of the collections. Callers retry against a fresh load.
type ConflictError struct {
	Collection string
}

func NewConflictError(collection string) error {
	return &ConflictError{Collection: collection}
}

func (err ConflictError) Error() string {
	return "concurrent update on " + err.Collection
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}
