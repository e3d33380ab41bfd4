package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestReaderUint16(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	v := r.Uint16()
	if r.Err() != nil {
		t.Fatalf("unexpected error: %v", r.Err())
	}
	if v != 0x0201 {
		t.Errorf("expected 0x0201, got 0x%04X", v)
	}
	if r.Offset() != 2 {
		t.Errorf("expected offset 2, got %d", r.Offset())
	}
	if r.Remaining() != 0 {
		t.Errorf("expected remaining 0, got %d", r.Remaining())
	}
}

func TestReaderUint32(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04})
	if v := r.Uint32(); v != 0x04030201 {
		t.Errorf("expected 0x04030201, got 0x%08X", v)
	}
}

func TestReaderShortReadIsSticky(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	_ = r.Uint16()
	if v := r.Uint32(); v != 0 {
		t.Errorf("expected zero value on short read, got %d", v)
	}
	if !errors.Is(r.Err(), ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", r.Err())
	}

	// Later reads stay no-ops even if they would fit.
	if v := r.Uint16(); v != 0 {
		t.Errorf("expected zero after error, got %d", v)
	}
	if r.Offset() != 2 {
		t.Errorf("expected offset to stay at 2, got %d", r.Offset())
	}
}

func TestReaderNilData(t *testing.T) {
	r := NewReader(nil)
	if r.Remaining() != 0 {
		t.Errorf("expected remaining 0, got %d", r.Remaining())
	}
	_ = r.Uint16()
	if r.Err() == nil {
		t.Error("expected error reading from nil data")
	}
}

func TestWriterFillsDestination(t *testing.T) {
	dst := make([]byte, 6)
	w := NewWriter(dst)
	w.Uint32(0x04030201)
	w.Uint16(0x0605)
	if w.Err() != nil {
		t.Fatalf("unexpected error: %v", w.Err())
	}
	want := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	if !bytes.Equal(dst, want) {
		t.Errorf("expected %x, got %x", want, dst)
	}
	if w.Len() != 6 {
		t.Errorf("expected len 6, got %d", w.Len())
	}
}

func TestWriterShortWrite(t *testing.T) {
	dst := make([]byte, 3)
	w := NewWriter(dst)
	w.Uint16(0xAAAA)
	w.Uint16(0xBBBB)
	if !errors.Is(w.Err(), ErrShortWrite) {
		t.Fatalf("expected ErrShortWrite, got %v", w.Err())
	}
	if dst[2] != 0 {
		t.Errorf("expected untouched byte after failed write, got 0x%02X", dst[2])
	}
	if w.Len() != 2 {
		t.Errorf("expected len 2, got %d", w.Len())
	}
}
