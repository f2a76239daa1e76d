// Package apperrors defines the typed errors shared by the catalog services and handlers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind string

const (
	KindValidation      Kind = "validation_error"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindDatabase        Kind = "database_error"
	KindExternalService Kind = "external_service_error"
	KindAuthentication  Kind = "authentication_error"
	KindAuthorization   Kind = "authorization_error"
	KindRateLimit       Kind = "rate_limit"
	KindConfiguration   Kind = "configuration_error"
)

// Kind sentinels for errors.Is matching, e.g. errors.Is(err, apperrors.ErrValidation).
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrDatabase        = &Error{Kind: KindDatabase}
	ErrExternalService = &Error{Kind: KindExternalService}
	ErrAuthentication  = &Error{Kind: KindAuthentication}
	ErrAuthorization   = &Error{Kind: KindAuthorization}
	ErrRateLimit       = &Error{Kind: KindRateLimit}
	ErrConfiguration   = &Error{Kind: KindConfiguration}
)

// Error is a domain error carrying a message and optional structured details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(kind Kind, msg string, cause error, details map[string]any) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause, Details: details}
}

// Validation reports a payload that violates domain constraints.
func Validation(msg string, details map[string]any) *Error {
	return newError(KindValidation, msg, nil, details)
}

// NotFound reports a missing entity at a boundary that needs a typed error.
func NotFound(msg string) *Error {
	return newError(KindNotFound, msg, nil, nil)
}

// Conflict reports a uniqueness violation.
func Conflict(msg string, details map[string]any) *Error {
	return newError(KindConflict, msg, nil, details)
}

// Database reports a storage backend failure.
func Database(msg string, cause error) *Error {
	return newError(KindDatabase, msg, cause, nil)
}

// ExternalService reports a failure of a third-party API.
func ExternalService(msg string, cause error) *Error {
	return newError(KindExternalService, msg, cause, nil)
}

// Authentication reports missing or invalid credentials.
func Authentication(msg string) *Error {
	return newError(KindAuthentication, msg, nil, nil)
}

// Authorization reports an authenticated caller lacking permission.
func Authorization(msg string) *Error {
	return newError(KindAuthorization, msg, nil, nil)
}

// RateLimit reports a throttled upstream call.
func RateLimit(msg string, cause error) *Error {
	return newError(KindRateLimit, msg, cause, nil)
}

// Configuration reports invalid settings.
func Configuration(msg string) *Error {
	return newError(KindConfiguration, msg, nil, nil)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// HTTPStatus maps err to the response status a handler should use.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
