// Package apperror defines the error kinds that business operations return to
// callers. Infrastructure failures stay plain wrapped errors.
package apperror

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// KindNotFound: a referenced entity does not exist.
	KindNotFound Kind = "not_found"
	// KindPolicy: the caller is not allowed to do this.
	KindPolicy Kind = "policy"
	// KindValidation: the input is malformed or out of range.
	KindValidation Kind = "validation"
	// KindState: the entity is not in a state that allows the operation.
	KindState Kind = "state"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func Policy(format string, args ...any) *Error {
	return newError(KindPolicy, format, args...)
}

func Validation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func State(format string, args ...any) *Error {
	return newError(KindState, format, args...)
}

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	e.Err = cause
	return e
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
