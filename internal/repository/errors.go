package repository

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnexpectedFormat is returned when a response body does not have a shape the client understands.
var ErrUnexpectedFormat = errors.New("received data in an unexpected format")

// TransportError wraps a failure to get any response from the API.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: no response from comments api: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a response with a non-2xx status.
type StatusError struct {
	Op     string
	Status int
	Header http.Header
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: comments api responded %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// Message turns any client error into a short text suitable for a notification.
func Message(err error) string {
	var statusErr *StatusError
	var transportErr *TransportError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnexpectedFormat):
		return "Received data in an unexpected format"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("The comments service answered with %d %s", statusErr.Status, http.StatusText(statusErr.Status))
	case errors.As(err, &transportErr):
		return "The comments service could not be reached"
	default:
		return err.Error()
	}
}
