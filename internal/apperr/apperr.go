// Package apperr defines the single error type returned by handlers and
// middleware.  Every error carries a Kind; the HTTP layer maps the kind to a
// status code through Status so the mapping lives in exactly one place.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP layer.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindRevoked
	KindInvalidToken
	KindRoleForbidden
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

var statusByKind = map[Kind]int{
	KindInternal:        http.StatusInternalServerError,
	KindBadRequest:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindRevoked:         http.StatusForbidden,
	KindInvalidToken:    http.StatusForbidden,
	KindRoleForbidden:   http.StatusForbidden,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindTooManyRequests: http.StatusTooManyRequests,
}

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindBadRequest:      "bad_request",
	KindUnauthorized:    "unauthorized",
	KindRevoked:         "revoked",
	KindInvalidToken:    "invalid_token",
	KindRoleForbidden:   "role_forbidden",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindConflict:        "conflict",
	KindTooManyRequests: "too_many_requests",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status returns the HTTP status code for kind.  Unknown kinds map to 500.
func Status(kind Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Error is a classified, client-presentable error.  Message is written to the
// response body as-is; Err, when set, is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status is shorthand for Status(e.Kind).
func (e *Error) Status() int { return Status(e.Kind) }

// New returns an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an Error of the given kind wrapping err.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Internal wraps an unexpected failure.  The cause is included in the message
// so the 500 response carries the diagnostic detail.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf("Internal Server Error (%v)", err), Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Common errors with the messages clients see.
var (
	ErrUnauthorized       = New(KindUnauthorized, "Unauthorized")
	ErrRevoked            = New(KindRevoked, "Revoked")
	ErrInvalidToken       = New(KindInvalidToken, "Forbidden")
	ErrRoleForbidden      = New(KindRoleForbidden, "Role Forbidden")
	ErrForbidden          = New(KindForbidden, "Forbidden")
	ErrBadRequest         = New(KindBadRequest, "Bad Request")
	ErrInvalidCredentials = New(KindBadRequest, "Invalid email or password")
	ErrEndpointNotFound   = New(KindNotFound, "Endpoint Not Found")
	ErrCharacterNotFound  = New(KindNotFound, "Character Not Found")
	ErrInvalidCharacterID = New(KindBadRequest, "Invalid character id")
	ErrEmailRegistered    = New(KindConflict, "Email already registered")
	ErrTooManyRequests    = New(KindTooManyRequests, "rate limit exceeded")
)
