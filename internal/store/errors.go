package store

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an operation is invoked without a
// resolvable session.
var ErrUnauthenticated = errors.New("unauthenticated")

// BackendError wraps a failure reported by the remote backend. Network
// failures and policy rejections are not distinguished beyond the message.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// ValidationError reports input rejected before reaching the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func backendErr(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}
