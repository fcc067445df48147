package rpc

import (
	"errors"
	"fmt"
)

// ErrNetwork matches failures where the request never reached the backend
// or no response came back.
var ErrNetwork = errors.New("network failure")

// NetworkError is a transport-level failure for one endpoint.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Endpoint, ErrNetwork, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ServerError is a non-success response: a bad status, an error payload or a
// body that does not match the endpoint's schema.
type ServerError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ServerError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: server error (HTTP %d): %s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: server error: %s", e.Endpoint, e.Message)
}

func (e *ServerError) Unwrap() error { return e.Err }

// IsServerError reports whether err is a *ServerError.
func IsServerError(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}
