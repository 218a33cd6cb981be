package apiclient

import (
	"errors"
	"net/http"
	"strings"
)

// FieldError is one field-level validation message from the backend.
type FieldError struct {
	Loc []string `json:"loc"`
	Msg string   `json:"msg"`
}

// Path joins the location, e.g. "body.lines.0.quantity".
func (f FieldError) Path() string {
	return strings.Join(f.Loc, ".")
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if f, ok := e.FirstFieldError(); ok {
		return f.Path() + ": " + f.Msg
	}
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

// FirstFieldError returns the first field-level message, if any.
func (e *APIError) FirstFieldError() (FieldError, bool) {
	if len(e.Fields) == 0 {
		return FieldError{}, false
	}
	return e.Fields[0], true
}

// StatusOf returns the HTTP status carried by err, or 0 when err is not an *APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// IsForbidden reports whether err is a 403 from the backend.
func IsForbidden(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}
