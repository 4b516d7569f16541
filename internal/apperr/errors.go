// Package apperr defines the domain error taxonomy shared by the core
// components. Storage failures are never converted into these kinds.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindPermissionDenied    Kind = "permission_denied"
	KindNotFound            Kind = "not_found"
	KindValidation          Kind = "validation"
	KindInvalidTransition   Kind = "invalid_transition"
	KindConsistency         Kind = "consistency"
	KindConcurrencyConflict Kind = "concurrency_conflict"
)

type Error struct {
	Kind    Kind
	Message string
	Details any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is matches a bare sentinel of the same kind, so errors.Is(err, ErrNotFound)
// holds for any NotFound error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

var (
	ErrPermissionDenied    = &Error{Kind: KindPermissionDenied}
	ErrNotFound            = &Error{Kind: KindNotFound}
	ErrValidation          = &Error{Kind: KindValidation}
	ErrInvalidTransition   = &Error{Kind: KindInvalidTransition}
	ErrConsistency         = &Error{Kind: KindConsistency}
	ErrConcurrencyConflict = &Error{Kind: KindConcurrencyConflict}
)

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Denied(reason string) *Error {
	return &Error{Kind: KindPermissionDenied, Message: reason}
}

func NotFoundf(format string, args ...any) *Error {
	return New(KindNotFound, format, args...)
}

func Invalid(message string, details any) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Transition(format string, args ...any) *Error {
	return New(KindInvalidTransition, format, args...)
}

func Consistency(format string, args ...any) *Error {
	return New(KindConsistency, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(KindConcurrencyConflict, format, args...)
}

// KindOf reports the domain kind of err, if it carries one.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
