package acl

import (
	"errors"
	"fmt"
)

// Decode errors.
var (
	ErrTruncatedFormat    = errors.New("acl: buffer shorter than header")
	ErrMalformedLength    = errors.New("acl: entry area is not a multiple of the entry size")
	ErrUnsupportedVersion = errors.New("acl: unsupported version")
	ErrUnknownTag         = errors.New("acl: unknown tag")
)

// Encode errors.
var (
	ErrBufferTooSmall = errors.New("acl: destination buffer too small")
	ErrUnsupportedTag = errors.New("acl: entry tag cannot be encoded")
)

// FormatError describes where in a buffer or entry list a codec error was
// found. It unwraps to one of the sentinel errors above.
type FormatError struct {
	// Offset is the byte offset for decode errors and the entry index for
	// encode errors.
	Offset int
	Value  uint32
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%v (value 0x%x at %d)", e.Err, e.Value, e.Offset)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}
