package acl

import (
	"fmt"
	"slices"

	"github.com/marmos91/volbridge/internal/wire"
)

// Wire layout constants.
const (
	// Version is the only header version understood by this codec.
	Version uint32 = 2

	// HeaderSize is the size of the version header.
	HeaderSize = 4

	// EntrySize is the size of one packed {tag, perm, id} entry.
	EntrySize = 8
)

// EncodedSize returns the number of bytes needed to encode an ACL with n
// entries. The result does not depend on entry contents.
func EncodedSize(n int) int {
	return HeaderSize + n*EntrySize
}

// EncodedSize returns the number of bytes needed to encode a.
func (a ACL) EncodedSize() int {
	return EncodedSize(len(a))
}

// Decode parses an encoded ACL. Entries are returned in wire order.
func Decode(b []byte) (ACL, error) {
	if len(b) < HeaderSize {
		return nil, &FormatError{Offset: 0, Value: uint32(len(b)), Err: ErrTruncatedFormat}
	}
	body := len(b) - HeaderSize
	if body%EntrySize != 0 {
		return nil, &FormatError{Offset: HeaderSize, Value: uint32(body), Err: ErrMalformedLength}
	}

	r := wire.NewReader(b)
	if v := r.Uint32(); v != Version {
		return nil, &FormatError{Offset: 0, Value: v, Err: ErrUnsupportedVersion}
	}

	n := body / EntrySize
	out := make(ACL, 0, n)
	for range n {
		off := r.Offset()
		tag := Tag(r.Uint16())
		perm := Perm(r.Uint16())
		id := r.Uint32()
		if err := r.Err(); err != nil {
			return nil, fmt.Errorf("acl: decode entry at %d: %w", off, err)
		}
		if !tag.Known() {
			return nil, &FormatError{Offset: off, Value: uint32(tag), Err: ErrUnknownTag}
		}
		if !tag.HasID() {
			id = UndefinedID
		}
		out = append(out, Entry{Tag: tag, ID: id, Perm: perm & PermAll})
	}
	return out, nil
}

// Canonicalize returns a copy of a stably sorted by (tag, id). Two ACLs that
// hold the same entries in different orders canonicalize to the same
// sequence. The input is not modified.
func Canonicalize(a ACL) ACL {
	out := slices.Clone(a)
	slices.SortStableFunc(out, compareEntries)
	return out
}

func compareEntries(x, y Entry) int {
	if x.Tag != y.Tag {
		if x.Tag < y.Tag {
			return -1
		}
		return 1
	}
	qx, qy := x.qualifier(), y.qualifier()
	switch {
	case qx < qy:
		return -1
	case qx > qy:
		return 1
	}
	return 0
}

// EncodeTo canonicalizes a and writes its encoding into dst, returning the
// number of bytes written. If dst is shorter than a.EncodedSize() the call
// fails with ErrBufferTooSmall. If any entry has a tag that cannot be stored
// it fails with ErrUnsupportedTag. In both cases dst is left untouched.
func EncodeTo(dst []byte, a ACL) (int, error) {
	size := a.EncodedSize()
	if len(dst) < size {
		return 0, &FormatError{Offset: len(dst), Value: uint32(size), Err: ErrBufferTooSmall}
	}
	for i, e := range a {
		if !e.Tag.Known() {
			return 0, &FormatError{Offset: i, Value: uint32(e.Tag), Err: ErrUnsupportedTag}
		}
	}

	w := wire.NewWriter(dst[:size])
	w.Uint32(Version)
	for _, e := range Canonicalize(a) {
		w.Uint16(uint16(e.Tag))
		w.Uint16(uint16(e.Perm & PermAll))
		w.Uint32(e.qualifier())
	}
	if err := w.Err(); err != nil {
		return 0, fmt.Errorf("acl: encode: %w", err)
	}
	return w.Len(), nil
}

// Encode allocates a buffer of the exact size and encodes a into it.
func Encode(a ACL) ([]byte, error) {
	buf := make([]byte, a.EncodedSize())
	n, err := EncodeTo(buf, a)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
