package rest

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the addressed resource does not exist.
	ErrNotFound = errors.New("geoserver: resource not found")
	// ErrInvalidRequest matches every *InvalidRequestError.
	ErrInvalidRequest = errors.New("geoserver: invalid request")
)

// InvalidRequestError reports a call the server refused or failed to answer.
// Status is 0 when no HTTP response was received.
type InvalidRequestError struct {
	Op      string
	Method  string
	Path    string
	Status  int
	Body    string
	Payload []byte
	Err     error
}

func (e *InvalidRequestError) Error() string {
	msg := fmt.Sprintf("geoserver: error %s %s (%s)", e.Op, e.Path, e.Method)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvalidRequestError) Unwrap() error { return e.Err }

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var ire *InvalidRequestError
	if errors.As(err, &ire) {
		return ire.Status
	}
	if errors.Is(err, ErrNotFound) {
		return 404
	}
	return 0
}
