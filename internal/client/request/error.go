package request

import (
	"errors"
	"fmt"
	"net/http"
)

// Error describes a failed request. Status is zero when the server was never reached.
type Error struct {
	Method  string
	URL     string
	Status  int
	Code    string
	Message string
	Body    []byte
	Err     error
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
	if e.Code != "" || e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s: %s", e.Method, e.URL, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNetwork reports whether the request failed before a response arrived.
func (e *Error) IsNetwork() bool {
	return e.Status == 0
}

// NotFound reports whether the server answered 404.
func (e *Error) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr, true
	}
	return nil, false
}
