package engine

import (
	"errors"
	"fmt"
)

// Kind categorizes the failures an engine operation can surface.
type Kind string

const (
	KindBadRequest   Kind = "BAD_REQUEST"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	KindNotFound     Kind = "NOT_FOUND"
	KindServerError  Kind = "SERVER_ERROR"
)

// Error is the only error type returned by Engine methods. Message is safe to
// show to the caller; the underlying cause of a KindServerError is logged and
// dropped.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

var (
	ErrBadRequest   = &Error{Kind: KindBadRequest, Message: "Bad request params"}
	ErrNoChanges    = &Error{Kind: KindBadRequest, Message: "Bad request, no changes made"}
	ErrUnauthorized = &Error{Kind: KindUnauthorized, Message: "Not Authorized"}
	ErrForbidden    = &Error{Kind: KindForbidden, Message: "Forbidden"}
	ErrNotFound     = &Error{Kind: KindNotFound, Message: "Not found"}
	ErrServerError  = &Error{Kind: KindServerError, Message: "Unable to complete your request"}
)

// KindOf returns the Kind of err, or KindServerError for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindServerError
}
