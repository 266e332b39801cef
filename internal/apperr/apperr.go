// Package apperr defines the failure kinds surfaced by the goal pipeline and
// the goal store. Every failure returned to a caller wraps exactly one kind.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput              = errors.New("InvalidInput")
	ErrUpstreamUnavailable       = errors.New("UpstreamUnavailable")
	ErrUpstreamError             = errors.New("UpstreamError")
	ErrUpstreamEmptyResponse     = errors.New("UpstreamEmptyResponse")
	ErrMalformedUpstreamEnvelope = errors.New("MalformedUpstreamEnvelope")
	ErrInvalidGeneratedGoal      = errors.New("InvalidGeneratedGoal")
	ErrPersistence               = errors.New("PersistenceError")
)

var kinds = []error{
	ErrInvalidInput,
	ErrUpstreamUnavailable,
	ErrUpstreamError,
	ErrUpstreamEmptyResponse,
	ErrMalformedUpstreamEnvelope,
	ErrInvalidGeneratedGoal,
	ErrPersistence,
}

// Error is a classified failure. StatusCode and Body are only set for
// UpstreamError.
type Error struct {
	Kind       error
	Message    string
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind error, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Upstream builds an UpstreamError for a non-2xx response.
func Upstream(statusCode int, body string) *Error {
	return &Error{
		Kind:       ErrUpstreamError,
		Message:    "generative service rejected the request",
		StatusCode: statusCode,
		Body:       body,
	}
}

// KindOf returns the failure kind wrapped by err, or nil if err is unclassified.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Message returns the human readable part of a classified error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
