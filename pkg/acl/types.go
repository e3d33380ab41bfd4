// Package acl implements POSIX access control lists and their compact
// little-endian xattr representation.
//
// An ACL travels between two forms: a structured slice of entries used by
// callers, and a versioned byte buffer stored under the
// system.posix_acl_access and system.posix_acl_default extended attributes.
// The conversion is pure and safe for concurrent use.
package acl

import (
	"fmt"
	"strings"
)

// Tag identifies the class of principal an entry applies to.
// Values are the on-wire tag bits.
type Tag uint16

const (
	TagUndefined Tag = 0x00
	TagUserObj   Tag = 0x01
	TagUser      Tag = 0x02
	TagGroupObj  Tag = 0x04
	TagGroup     Tag = 0x08
	TagMask      Tag = 0x10
	TagOther     Tag = 0x20
)

// Known reports whether t is one of the six tags that can be stored.
func (t Tag) Known() bool {
	switch t {
	case TagUserObj, TagUser, TagGroupObj, TagGroup, TagMask, TagOther:
		return true
	}
	return false
}

// HasID reports whether entries with this tag carry a numeric qualifier.
func (t Tag) HasID() bool {
	return t == TagUser || t == TagGroup
}

// String returns the getfacl-style name of the tag.
func (t Tag) String() string {
	switch t {
	case TagUserObj, TagUser:
		return "user"
	case TagGroupObj, TagGroup:
		return "group"
	case TagMask:
		return "mask"
	case TagOther:
		return "other"
	case TagUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("tag(0x%02x)", uint16(t))
	}
}

// Perm is a permission bitset.
type Perm uint16

const (
	PermExecute Perm = 0x1
	PermWrite   Perm = 0x2
	PermRead    Perm = 0x4

	// PermAll is the union of all defined permission bits.
	PermAll = PermRead | PermWrite | PermExecute
)

// String renders the permission as "rwx" with dashes for missing bits.
func (p Perm) String() string {
	var b strings.Builder
	b.Grow(3)
	for _, bit := range []struct {
		p Perm
		c byte
	}{{PermRead, 'r'}, {PermWrite, 'w'}, {PermExecute, 'x'}} {
		if p&bit.p != 0 {
			b.WriteByte(bit.c)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// UndefinedID is the qualifier stored for entries whose tag has no id.
const UndefinedID uint32 = 0xFFFFFFFF

// Entry is a single access control entry.
type Entry struct {
	Tag  Tag    `json:"tag" yaml:"tag"`
	ID   uint32 `json:"id" yaml:"id"`
	Perm Perm   `json:"perm" yaml:"perm"`
}

// qualifier returns the id as it is stored: the real id for USER and GROUP,
// UndefinedID for everything else.
func (e Entry) qualifier() uint32 {
	if e.Tag.HasID() {
		return e.ID
	}
	return UndefinedID
}

// ACL is an ordered sequence of entries.
type ACL []Entry

// Type selects which of a file's two ACLs is addressed.
type Type int

const (
	// TypeAccess is the ACL checked on access to the file itself.
	TypeAccess Type = iota
	// TypeDefault is the ACL a directory hands down to new children.
	TypeDefault
)

// Extended attribute names that carry encoded ACLs.
const (
	XattrAccess  = "system.posix_acl_access"
	XattrDefault = "system.posix_acl_default"
)

// XattrName returns the extended attribute that stores ACLs of this type.
func (t Type) XattrName() (string, error) {
	switch t {
	case TypeAccess:
		return XattrAccess, nil
	case TypeDefault:
		return XattrDefault, nil
	default:
		return "", fmt.Errorf("acl: unknown type %d", int(t))
	}
}

func (t Type) String() string {
	switch t {
	case TypeAccess:
		return "access"
	case TypeDefault:
		return "default"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType parses "access" or "default".
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "access":
		return TypeAccess, nil
	case "default":
		return TypeDefault, nil
	default:
		return 0, fmt.Errorf("acl: unknown type %q (want access or default)", s)
	}
}
