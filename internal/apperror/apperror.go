// Package apperror defines the closed set of failure kinds returned by the
// services. Callers branch on Kind, never on message text.
package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

type Kind string

const (
	AuthInvalid           Kind = "auth_invalid"
	AccountSuspended      Kind = "account_suspended"
	PermissionDenied      Kind = "permission_denied"
	ValidationError       Kind = "validation_error"
	NotFound              Kind = "not_found"
	InsufficientStock     Kind = "insufficient_stock"
	InsufficientInventory Kind = "insufficient_inventory"
	DuplicateResource     Kind = "duplicate_resource"
	DependencyFailure     Kind = "dependency_failure"
	Internal              Kind = "internal"
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

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperror.New(k, ""))
// works as a kind check.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf reports the kind of err, Internal for anything not produced here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message is the client facing text. Internal errors never leak driver details.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "unexpected server error"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case AuthInvalid:
		return http.StatusUnauthorized
	case AccountSuspended, PermissionDenied:
		return http.StatusForbidden
	case ValidationError:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case InsufficientStock, InsufficientInventory, DuplicateResource:
		return http.StatusConflict
	case DependencyFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// FromStore converts ORM errors into kinds. what names the entity for the
// not-found message.
func FromStore(err error, what string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(NotFound, what+" not found", err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Wrap(DuplicateResource, what+" already exists", err)
	default:
		return Wrap(Internal, "could not access "+what, err)
	}
}
