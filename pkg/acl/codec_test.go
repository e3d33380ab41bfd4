package acl

import (
	"bytes"
	"errors"
	"math/rand"
	"slices"
	"testing"
)

func sampleACL() ACL {
	return ACL{
		{Tag: TagUserObj, ID: UndefinedID, Perm: PermRead | PermWrite | PermExecute},
		{Tag: TagUser, ID: 1000, Perm: PermRead | PermWrite},
		{Tag: TagUser, ID: 42, Perm: PermRead},
		{Tag: TagGroupObj, ID: UndefinedID, Perm: PermRead | PermExecute},
		{Tag: TagGroup, ID: 100, Perm: PermRead},
		{Tag: TagMask, ID: UndefinedID, Perm: PermRead | PermWrite | PermExecute},
		{Tag: TagOther, ID: UndefinedID, Perm: 0},
	}
}

func TestEncodeExactBytes(t *testing.T) {
	got, err := Encode(ACL{
		{Tag: TagUser, ID: 0x01020304, Perm: PermRead},
		{Tag: TagUserObj, Perm: PermAll},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := []byte{
		0x02, 0x00, 0x00, 0x00, // version
		0x01, 0x00, 0x07, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, // user_obj rwx
		0x02, 0x00, 0x04, 0x00, 0x04, 0x03, 0x02, 0x01, // user 0x01020304 r--
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode() =\n%x\nwant\n%x", got, want)
	}
}

func TestEncodedSizeIndependentOfContent(t *testing.T) {
	if got := EncodedSize(0); got != HeaderSize {
		t.Errorf("EncodedSize(0) = %d, want %d", got, HeaderSize)
	}
	a := sampleACL()
	if got, want := a.EncodedSize(), HeaderSize+len(a)*EntrySize; got != want {
		t.Errorf("EncodedSize() = %d, want %d", got, want)
	}
	bogus := ACL{{Tag: Tag(0x40)}, {Tag: TagUndefined}}
	if got := bogus.EncodedSize(); got != HeaderSize+2*EntrySize {
		t.Errorf("EncodedSize() with unknown tags = %d", got)
	}
}

func TestRoundTrip(t *testing.T) {
	in := sampleACL()
	buf, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !slices.Equal(out, Canonicalize(in)) {
		t.Errorf("round trip mismatch:\n got %v\nwant %v", out, Canonicalize(in))
	}
}

func TestRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tags := []Tag{TagUserObj, TagUser, TagGroupObj, TagGroup, TagMask, TagOther}

	for i := range 200 {
		n := rng.Intn(12)
		in := make(ACL, n)
		for j := range in {
			tag := tags[rng.Intn(len(tags))]
			id := UndefinedID
			if tag.HasID() {
				id = uint32(rng.Intn(5000))
			}
			in[j] = Entry{Tag: tag, ID: id, Perm: Perm(rng.Intn(8))}
		}

		buf, err := Encode(in)
		if err != nil {
			t.Fatalf("case %d: Encode() error = %v", i, err)
		}
		out, err := Decode(buf)
		if err != nil {
			t.Fatalf("case %d: Decode() error = %v", i, err)
		}
		if !sameMultiset(in, out) {
			t.Fatalf("case %d: entries differ:\n got %v\nwant %v", i, out, in)
		}
	}
}

func sameMultiset(a, b ACL) bool {
	if len(a) != len(b) {
		return false
	}
	return slices.Equal(Canonicalize(a), Canonicalize(b))
}

func TestEncodeCanonicalOrdering(t *testing.T) {
	base := sampleACL()
	want, err := Encode(base)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	for i := range 50 {
		perm := slices.Clone(base)
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		got, err := Encode(perm)
		if err != nil {
			t.Fatalf("permutation %d: Encode() error = %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("permutation %d produced different bytes", i)
		}
	}
}

func TestEncodeIgnoresIDOfUnqualifiedTags(t *testing.T) {
	a, err := Encode(ACL{{Tag: TagOther, ID: 7, Perm: PermRead}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(ACL{{Tag: TagOther, ID: UndefinedID, Perm: PermRead}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("other entry id leaked into encoding: %x vs %x", a, b)
	}
}

func TestCanonicalizeDoesNotMutateInput(t *testing.T) {
	in := ACL{{Tag: TagOther}, {Tag: TagUserObj}}
	_ = Canonicalize(in)
	if in[0].Tag != TagOther {
		t.Error("Canonicalize() reordered its input")
	}
}

func TestCanonicalizeIsStable(t *testing.T) {
	in := ACL{
		{Tag: TagUser, ID: 5, Perm: PermRead},
		{Tag: TagUser, ID: 5, Perm: PermWrite},
	}
	out := Canonicalize(in)
	if out[0].Perm != PermRead || out[1].Perm != PermWrite {
		t.Errorf("equal keys were reordered: %v", out)
	}
}

func TestEncodeToLengthContract(t *testing.T) {
	a := sampleACL()
	size := a.EncodedSize()

	dst := make([]byte, size)
	n, err := EncodeTo(dst, a)
	if err != nil {
		t.Fatalf("EncodeTo() exact size error = %v", err)
	}
	if n != size {
		t.Errorf("EncodeTo() wrote %d bytes, want %d", n, size)
	}

	for short := range size {
		dst := bytes.Repeat([]byte{0xEE}, short)
		n, err := EncodeTo(dst, a)
		if !errors.Is(err, ErrBufferTooSmall) {
			t.Fatalf("EncodeTo() with %d bytes error = %v, want ErrBufferTooSmall", short, err)
		}
		if n != 0 {
			t.Errorf("EncodeTo() with %d bytes reported %d written", short, n)
		}
		if !bytes.Equal(dst, bytes.Repeat([]byte{0xEE}, short)) {
			t.Fatalf("EncodeTo() with %d bytes modified destination", short)
		}
	}
}

func TestEncodeToLargerBuffer(t *testing.T) {
	a := ACL{{Tag: TagOther, Perm: PermRead}}
	dst := bytes.Repeat([]byte{0xEE}, 32)
	n, err := EncodeTo(dst, a)
	if err != nil {
		t.Fatalf("EncodeTo() error = %v", err)
	}
	if n != 12 {
		t.Errorf("EncodeTo() = %d, want 12", n)
	}
	if dst[n] != 0xEE {
		t.Error("EncodeTo() wrote past the encoded size")
	}
}

func TestEncodeUnsupportedTag(t *testing.T) {
	for _, tag := range []Tag{TagUndefined, Tag(0x40), Tag(0x03)} {
		a := ACL{{Tag: TagUserObj, Perm: PermRead}, {Tag: tag, Perm: PermRead}}
		dst := make([]byte, a.EncodedSize())
		_, err := EncodeTo(dst, a)
		if !errors.Is(err, ErrUnsupportedTag) {
			t.Errorf("tag 0x%02x: error = %v, want ErrUnsupportedTag", uint16(tag), err)
		}
		if !bytes.Equal(dst, make([]byte, len(dst))) {
			t.Errorf("tag 0x%02x: destination was partially written", uint16(tag))
		}

		var fe *FormatError
		if !errors.As(err, &fe) || fe.Offset != 1 {
			t.Errorf("tag 0x%02x: expected FormatError at entry 1, got %v", uint16(tag), err)
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	buf, err := Encode(nil)
	if err != nil {
		t.Fatalf("Encode(nil) error = %v", err)
	}
	if !bytes.Equal(buf, []byte{0x02, 0, 0, 0}) {
		t.Errorf("Encode(nil) = %x", buf)
	}
	out, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Decode() returned %d entries", len(out))
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode(sampleACL())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		buf  []byte
		want error
	}{
		{"nil", nil, ErrTruncatedFormat},
		{"short header", []byte{0x02, 0x00, 0x00}, ErrTruncatedFormat},
		{"header plus one", []byte{0x02, 0x00, 0x00, 0x00, 0x01}, ErrMalformedLength},
		{"partial entry", valid[:len(valid)-3], ErrMalformedLength},
		{"version 1", []byte{0x01, 0x00, 0x00, 0x00}, ErrUnsupportedVersion},
		{"version big endian", []byte{0x00, 0x00, 0x00, 0x02}, ErrUnsupportedVersion},
		{"undefined tag", []byte{0x02, 0, 0, 0, 0x00, 0x00, 0x04, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}, ErrUnknownTag},
		{"unknown tag", []byte{0x02, 0, 0, 0, 0x40, 0x00, 0x04, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}, ErrUnknownTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.buf)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode() error = %v, want %v", err, tt.want)
			}
			if got != nil {
				t.Errorf("Decode() returned entries on error: %v", got)
			}
		})
	}
}

func TestDecodeMalformedLengthCheckedBeforeVersion(t *testing.T) {
	_, err := Decode([]byte{0x01, 0x00, 0x00, 0x00, 0xAA})
	if !errors.Is(err, ErrMalformedLength) {
		t.Errorf("Decode() error = %v, want ErrMalformedLength", err)
	}
}

func TestDecodePreservesWireOrder(t *testing.T) {
	buf := []byte{
		0x02, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x04, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, // other r--
		0x01, 0x00, 0x06, 0x00, 0xFF, 0xFF, 0xFF, 0xFF, // user_obj rw-
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(got) != 2 || got[0].Tag != TagOther || got[1].Tag != TagUserObj {
		t.Errorf("Decode() = %v, want wire order", got)
	}
}

func TestDecodeNormalizesQualifierAndPerm(t *testing.T) {
	buf := []byte{
		0x02, 0x00, 0x00, 0x00,
		0x04, 0x00, 0xFF, 0x00, 0x10, 0x00, 0x00, 0x00, // group_obj, stray id, extra perm bits
		0x08, 0x00, 0x01, 0x00, 0x64, 0x00, 0x00, 0x00, // group 100 --x
	}
	got, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got[0].ID != UndefinedID {
		t.Errorf("group_obj id = %d, want UndefinedID", got[0].ID)
	}
	if got[0].Perm != PermAll {
		t.Errorf("group_obj perm = %v, want rwx", got[0].Perm)
	}
	if got[1].ID != 100 || got[1].Perm != PermExecute {
		t.Errorf("group entry = %+v", got[1])
	}
}

func TestResultLabel(t *testing.T) {
	_, err := Decode([]byte{1})
	if got := ResultLabel(err); got != "truncated" {
		t.Errorf("ResultLabel() = %q", got)
	}
	if got := ResultLabel(nil); got != "ok" {
		t.Errorf("ResultLabel(nil) = %q", got)
	}
	if got := ResultLabel(errors.New("boom")); got != "error" {
		t.Errorf("ResultLabel(other) = %q", got)
	}
}
