package vfs

import (
	"errors"
	"fmt"

	"github.com/marmos91/volbridge/pkg/acl"
	"github.com/marmos91/volbridge/pkg/volume"
)

var (
	// ErrDisconnected is returned by operations on a share after Disconnect.
	ErrDisconnected = errors.New("vfs: share disconnected")

	// ErrShareNotFound is returned when a share name is not connected.
	ErrShareNotFound = errors.New("vfs: share not found")

	// ErrShareExists is returned when connecting a share name twice.
	ErrShareExists = errors.New("vfs: share already connected")
)

// codecError maps an ACL codec failure to the outward error kinds. Malformed
// stored bytes and entries that cannot be encoded are invalid arguments; a
// format version this build does not speak is unsupported. The codec error
// stays in the chain.
func codecError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, acl.ErrUnsupportedVersion):
		return fmt.Errorf("%s: %w: %w", op, volume.ErrNotSupported, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, volume.ErrInvalidArgument, err)
	}
}
