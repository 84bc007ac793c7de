package apierror

import (
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindAuthentication Kind = "AUTHENTICATION"
	KindConflict       Kind = "CONFLICT"
	KindNotFound       Kind = "NOT_FOUND"
	KindInternal       Kind = "INTERNAL"
)

// APIError is an error that is safe to show to the client. Err holds the
// underlying cause for server-side logs only.
type APIError struct {
	Kind       Kind   `json:"-"`
	Message    string `json:"error"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func New(kind Kind, message string, status int, cause error) *APIError {
	return &APIError{Kind: kind, Message: message, HTTPStatus: status, Err: cause}
}

func Validation(message string) *APIError {
	return New(KindValidation, message, http.StatusBadRequest, nil)
}

func Unauthorized(message string) *APIError {
	return New(KindAuthentication, message, http.StatusUnauthorized, nil)
}

// Conflict is reported as 400 so clients treat a taken email like any other
// correctable form error.
func Conflict(message string, cause error) *APIError {
	return New(KindConflict, message, http.StatusBadRequest, cause)
}

func NotFound(message string) *APIError {
	return New(KindNotFound, message, http.StatusNotFound, nil)
}

func Internal(message string, cause error) *APIError {
	return New(KindInternal, message, http.StatusInternalServerError, cause)
}
