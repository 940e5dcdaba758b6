// Package apperr defines the error kinds shared by the auth and content layers.
// Callers classify failures with KindOf or errors.Is against the Kind values.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	Unauthenticated     Kind = "unauthenticated"
	Invalid             Kind = "invalid"
	NotFound            Kind = "not_found"
	ConstraintViolation Kind = "constraint_violation"
	StorageFailure      Kind = "storage_failure"
	PartialWriteRisk    Kind = "partial_write_risk"
	Validation          Kind = "validation"
)

func (k Kind) Error() string { return string(k) }

// Error carries a Kind, the operation that failed and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apperr.NotFound) match on the kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func Storage(op string, err error) *Error {
	return &Error{Kind: StorageFailure, Op: op, Msg: "storage operation failed", Err: err}
}

func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in the chain, or
// StorageFailure for anything unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return StorageFailure
}

// Message returns the user-facing part of err without its cause chain.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return string(KindOf(err))
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case Unauthenticated, Invalid:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case ConstraintViolation:
		return http.StatusConflict
	case Validation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
