package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionFailed is matched by every error returned when Acquire
	// could not establish a connection.
	ErrConnectionFailed = errors.New("registry: connection failed")

	// ErrUnknownHandle is returned by Release for a handle that is not
	// outstanding: already released, nil, or from another registry.
	ErrUnknownHandle = errors.New("registry: unknown handle")

	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("registry: closed")
)

// ConnectError reports a failed connection attempt for one key.
type ConnectError struct {
	Volume    string
	MountPath string
	Err       error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("registry: connect %s at %s: %v", e.Volume, e.MountPath, e.Err)
}

// Unwrap returns both ErrConnectionFailed and the underlying cause.
func (e *ConnectError) Unwrap() []error {
	return []error{ErrConnectionFailed, e.Err}
}
