// Package wire provides fixed-order binary encoding helpers for on-disk
// attribute formats.
//
// Reader and Writer both use sticky errors: the first failure is recorded and
// every later call becomes a no-op, so a sequence of field accesses can be
// checked once at the end:
//
//	r := wire.NewReader(buf)
//	version := r.Uint32()
//	tag := r.Uint16()
//	if err := r.Err(); err != nil {
//	    return err
//	}
//
// Unlike an append-based encoder, Writer fills a caller-owned destination in
// place and never grows it. Callers size the destination up front.
//
// All integers are little-endian regardless of host byte order.
package wire
