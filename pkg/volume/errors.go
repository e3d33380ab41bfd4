package volume

import "errors"

var (
	// ErrNotFound is returned when a path does not exist on the volume.
	ErrNotFound = errors.New("volume: no such file or directory")

	// ErrNoData is returned when an extended attribute does not exist.
	ErrNoData = errors.New("volume: no such attribute")

	// ErrNotSupported is returned for operations a backend cannot perform.
	ErrNotSupported = errors.New("volume: operation not supported")

	// ErrInvalidArgument is returned for malformed requests or payloads.
	ErrInvalidArgument = errors.New("volume: invalid argument")

	// ErrClosed is returned by any call on a closed volume.
	ErrClosed = errors.New("volume: connection closed")

	// ErrUnknownBackend is returned when no connector exists for a backend.
	ErrUnknownBackend = errors.New("volume: unknown backend")
)
