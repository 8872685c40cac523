// Package apperr carries request-local error kinds from services to HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Kind int

const (
	Internal Kind = iota
	Validation
	Unauthorized
	Forbidden
	NotFound
	Duplicate
	PreconditionFailed
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Duplicate:
		return "duplicate"
	case PreconditionFailed:
		return "precondition_failed"
	case Conflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status maps a kind to its HTTP status. Timer state conflicts answer 418.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Duplicate:
		return http.StatusConflict
	case PreconditionFailed:
		return http.StatusExpectationFailed
	case Conflict:
		return http.StatusTeapot
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the kind of the first *Error in err's chain, Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus is KindOf(err).Status().
func HTTPStatus(err error) int {
	return KindOf(err).Status()
}

// Message is the client-facing text. Internal errors never leak their cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Msg
	}
	return "internal server error"
}

// FromDB translates persistence errors. what names the looked-up entity.
func FromDB(err error, what string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Newf(NotFound, "%s not found", what)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Wrap(Duplicate, err, what+" already exists")
	}
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return Wrap(Duplicate, err, what+" already exists")
	}
	return Wrap(Internal, err, "database error on "+what)
}
