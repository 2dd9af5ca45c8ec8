package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can map it to a status code.
type Kind string

const (
	KindValidation  Kind = "validation"  // malformed or out-of-range input
	KindNotFound    Kind = "not_found"   // unknown habit or check-in
	KindConflict    Kind = "conflict"    // duplicate check-in date
	KindUnavailable Kind = "unavailable" // storage or another collaborator is down
)

// Sentinels usable with errors.Is.
var (
	ErrValidation  = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrNotFound    = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict    = &Error{Kind: KindConflict, Message: "conflict"}
	ErrUnavailable = &Error{Kind: KindUnavailable, Message: "service unavailable"}
)

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindUnavailable {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound) works for every
// not-found error regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Validationf returns a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf returns a not-found error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflictf returns a conflict error with a formatted message.
func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps an infrastructure failure. Domain errors pass through unchanged so a
// not-found from a repository is never reclassified as an outage.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return err
	}
	return &Error{Kind: KindUnavailable, Message: op, Err: err}
}

// KindOf returns the Kind of err, or an empty Kind for unclassified errors.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
