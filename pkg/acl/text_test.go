package acl

import (
	"testing"
)

func TestParseEntry(t *testing.T) {
	tests := []struct {
		in   string
		want Entry
	}{
		{"user::rwx", Entry{Tag: TagUserObj, ID: UndefinedID, Perm: PermAll}},
		{"u:1000:rw-", Entry{Tag: TagUser, ID: 1000, Perm: PermRead | PermWrite}},
		{"group::r-x", Entry{Tag: TagGroupObj, ID: UndefinedID, Perm: PermRead | PermExecute}},
		{"g:100:r", Entry{Tag: TagGroup, ID: 100, Perm: PermRead}},
		{"mask::xr", Entry{Tag: TagMask, ID: UndefinedID, Perm: PermRead | PermExecute}},
		{"other::---", Entry{Tag: TagOther, ID: UndefinedID}},
	}
	for _, tt := range tests {
		got, err := ParseEntry(tt.in)
		if err != nil {
			t.Errorf("ParseEntry(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseEntry(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseEntryErrors(t *testing.T) {
	for _, in := range []string{"", "user", "nobody::r", "user:abc:r", "other:5:r", "user::rwz"} {
		if _, err := ParseEntry(in); err == nil {
			t.Errorf("ParseEntry(%q) expected error", in)
		}
	}
}

func TestACLStringParseRoundTrip(t *testing.T) {
	in := sampleACL()
	out, err := Parse(in.String())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("Parse() returned %d entries, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("entry %d = %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestParseSkipsCommentsAndBlanks(t *testing.T) {
	out, err := Parse("# file: foo\nuser::rw-\n\ngroup::r--,other::r--\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(out) != 3 {
		t.Errorf("Parse() returned %d entries, want 3", len(out))
	}
}

func TestParseType(t *testing.T) {
	if ty, err := ParseType("default"); err != nil || ty != TypeDefault {
		t.Errorf("ParseType(default) = %v, %v", ty, err)
	}
	if ty, err := ParseType(""); err != nil || ty != TypeAccess {
		t.Errorf("ParseType(\"\") = %v, %v", ty, err)
	}
	if _, err := ParseType("inherit"); err == nil {
		t.Error("ParseType(inherit) expected error")
	}
	if _, err := Type(9).XattrName(); err == nil {
		t.Error("XattrName() for unknown type expected error")
	}
	if name, _ := TypeDefault.XattrName(); name != XattrDefault {
		t.Errorf("XattrName() = %q", name)
	}
}

func TestPermString(t *testing.T) {
	if got := (PermRead | PermExecute).String(); got != "r-x" {
		t.Errorf("String() = %q", got)
	}
	if got := Perm(0).String(); got != "---" {
		t.Errorf("String() = %q", got)
	}
}
