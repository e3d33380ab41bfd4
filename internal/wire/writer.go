package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortWrite is returned when a write does not fit in the destination.
var ErrShortWrite = errors.New("wire: short write")

// Writer encodes little-endian fields into a fixed destination slice.
type Writer struct {
	dst []byte
	pos int
	err error
}

// NewWriter returns a Writer that fills dst from offset 0.
func NewWriter(dst []byte) *Writer {
	return &Writer{dst: dst}
}

func (w *Writer) room(n int) bool {
	if w.err != nil {
		return false
	}
	if n > len(w.dst)-w.pos {
		w.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortWrite, n, w.pos, len(w.dst)-w.pos)
		return false
	}
	return true
}

// Uint16 writes a little-endian uint16.
func (w *Writer) Uint16(v uint16) {
	if !w.room(2) {
		return
	}
	binary.LittleEndian.PutUint16(w.dst[w.pos:], v)
	w.pos += 2
}

// Uint32 writes a little-endian uint32.
func (w *Writer) Uint32(v uint32) {
	if !w.room(4) {
		return
	}
	binary.LittleEndian.PutUint32(w.dst[w.pos:], v)
	w.pos += 4
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.pos
}

// Err returns the first error encountered, or nil.
func (w *Writer) Err() error {
	return w.err
}
