package acl

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the entry in getfacl short form, e.g. "user:1000:rw-".
func (e Entry) String() string {
	q := ""
	if e.Tag.HasID() {
		q = strconv.FormatUint(uint64(e.ID), 10)
	}
	return e.Tag.String() + ":" + q + ":" + e.Perm.String()
}

// String renders the ACL as comma-separated short-form entries.
func (a ACL) String() string {
	parts := make([]string, len(a))
	for i, e := range a {
		parts[i] = e.String()
	}
	return strings.Join(parts, ",")
}

// ParseEntry parses a short-form entry such as "user::rwx", "group:100:r-x"
// or "other::r". Permission letters may appear in any order; '-' is ignored.
func ParseEntry(s string) (Entry, error) {
	fields := strings.Split(strings.TrimSpace(s), ":")
	if len(fields) != 3 {
		return Entry{}, fmt.Errorf("acl: entry %q: want tag:qualifier:perms", s)
	}
	kind, qual, perms := fields[0], fields[1], fields[2]

	var e Entry
	switch kind {
	case "user", "u":
		e.Tag = TagUserObj
		if qual != "" {
			e.Tag = TagUser
		}
	case "group", "g":
		e.Tag = TagGroupObj
		if qual != "" {
			e.Tag = TagGroup
		}
	case "mask", "m":
		e.Tag = TagMask
	case "other", "o":
		e.Tag = TagOther
	default:
		return Entry{}, fmt.Errorf("acl: entry %q: unknown tag %q", s, kind)
	}

	e.ID = UndefinedID
	if e.Tag.HasID() {
		id, err := strconv.ParseUint(qual, 10, 32)
		if err != nil {
			return Entry{}, fmt.Errorf("acl: entry %q: bad id: %w", s, err)
		}
		e.ID = uint32(id)
	} else if qual != "" {
		return Entry{}, fmt.Errorf("acl: entry %q: %s takes no qualifier", s, kind)
	}

	for _, c := range perms {
		switch c {
		case 'r':
			e.Perm |= PermRead
		case 'w':
			e.Perm |= PermWrite
		case 'x':
			e.Perm |= PermExecute
		case '-':
		default:
			return Entry{}, fmt.Errorf("acl: entry %q: bad permission %q", s, c)
		}
	}
	return e, nil
}

// Parse parses a comma- or newline-separated list of short-form entries.
// Blank items and lines starting with '#' are skipped.
func Parse(s string) (ACL, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' })
	out := make(ACL, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" || strings.HasPrefix(f, "#") {
			continue
		}
		e, err := ParseEntry(f)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
