// Package xattrstore defines where a local volume keeps extended attributes.
//
// Many host filesystems either lack user xattrs or restrict the
// system.posix_acl_* namespace, so the local backend can keep attributes in
// the filesystem itself or in a side database keyed by volume path.
package xattrstore

import (
	"context"
	"io"
	"slices"
)

// Type selects a Store implementation.
type Type string

const (
	TypeNative   Type = "native"
	TypeBadger   Type = "badger"
	TypeSQLite   Type = "sqlite"
	TypePostgres Type = "postgres"
)

// Types lists every known store type.
var Types = []Type{TypeNative, TypeBadger, TypeSQLite, TypePostgres}

// Valid reports whether t names a known store.
func (t Type) Valid() bool {
	return slices.Contains(Types, t)
}

// Store persists extended attributes for paths within one namespace.
// Paths are absolute volume paths. A missing attribute yields
// volume.ErrNoData.
type Store interface {
	io.Closer

	Get(ctx context.Context, path, name string) ([]byte, error)
	Set(ctx context.Context, path, name string, value []byte) error
	Remove(ctx context.Context, path, name string) error

	// List returns attribute names on path in ascending order.
	List(ctx context.Context, path string) ([]string, error)
}
