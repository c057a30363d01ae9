package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for HTTP mapping. Store errors are always wrapped
// in one of these kinds before they reach a handler.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindValidation
	KindBusinessRule
	KindUpstream
)

// Error is an application error carrying a kind and a caller-safe message.
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

// E builds a new application error.
func E(kind Kind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Errorf builds a new application error with a formatted message.
func Errorf(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind of an error, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// MessageOf extracts the caller-safe message of an error. Plain errors fall
// back to a generic message so raw store errors never leak to clients.
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

// HTTPStatus maps an error kind to the HTTP status code it is reported with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return 404
	case KindUnauthorized:
		return 401
	case KindForbidden:
		return 403
	case KindValidation, KindBusinessRule:
		return 400
	case KindUpstream:
		return 502
	default:
		return 500
	}
}
