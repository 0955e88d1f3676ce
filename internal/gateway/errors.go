package gateway

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned by ValidateSession when the backend
// reports that no user is logged in. It is the expected state before
// login and is not surfaced to the user.
var ErrUnauthenticated = errors.New("not authenticated")

// ConflictError reports that an authentication submission was rejected
// for a reason that belongs to a specific form field, such as wrong
// credentials or a username that is already taken.
type ConflictError struct {
	Field   string
	Status  int
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Field, e.Status, e.Message)
}

// TransportError covers every other failure: a non-2xx response
// (Status > 0) or a request that never produced a response (Status 0).
type TransportError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsUnauthenticated reports whether err (or any error in its chain) is
// ErrUnauthenticated.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// AsConflict returns the ConflictError in err's chain, if any.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

// statusOf returns the HTTP status carried by a TransportError in err's
// chain, or 0.
func statusOf(err error) int {
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Status
	}
	return 0
}
