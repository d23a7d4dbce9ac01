package api

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthorized matches responses for a missing, invalid or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden matches responses for an authenticated caller lacking the role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound matches responses for a record that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict matches responses for a duplicate record.
	ErrConflict = errors.New("conflict")
)

// Error is a failed API call. Message is the server's message when one was
// sent, otherwise the operation's fallback text. StatusCode is zero when the
// request never produced a response.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is maps status codes onto the package sentinels so callers can write
// errors.Is(err, api.ErrUnauthorized).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// errorBody is the shape of a non-2xx response.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}
