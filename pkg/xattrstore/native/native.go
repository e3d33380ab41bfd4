// Package native stores extended attributes in the host filesystem.
package native

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"syscall"

	"github.com/pkg/xattr"

	"github.com/marmos91/volbridge/pkg/volume"
)

// Store reads and writes attributes directly on files below Root.
type Store struct {
	root string
}

// New returns a store rooted at root. The directory must exist.
func New(root string) (*Store, error) {
	if !xattr.XATTR_SUPPORTED {
		return nil, fmt.Errorf("native xattrs: %w", volume.ErrNotSupported)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) resolve(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(volume.CleanPath(p)))
}

// Get implements xattrstore.Store.
func (s *Store) Get(_ context.Context, p, name string) ([]byte, error) {
	v, err := xattr.Get(s.resolve(p), name)
	if err != nil {
		return nil, mapError(err)
	}
	return v, nil
}

// Set implements xattrstore.Store.
func (s *Store) Set(_ context.Context, p, name string, value []byte) error {
	return mapError(xattr.Set(s.resolve(p), name, value))
}

// Remove implements xattrstore.Store.
func (s *Store) Remove(_ context.Context, p, name string) error {
	return mapError(xattr.Remove(s.resolve(p), name))
}

// List implements xattrstore.Store.
func (s *Store) List(_ context.Context, p string) ([]string, error) {
	names, err := xattr.List(s.resolve(p))
	if err != nil {
		return nil, mapError(err)
	}
	slices.Sort(names)
	return names, nil
}

// Close implements xattrstore.Store.
func (s *Store) Close() error { return nil }

// mapError translates errno values into volume errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch {
	case errno == xattr.ENOATTR:
		return fmt.Errorf("%w: %w", volume.ErrNoData, err)
	case errno == syscall.ENOENT || errno == syscall.ENOTDIR:
		return fmt.Errorf("%w: %w", volume.ErrNotFound, err)
	case errno == syscall.ENOTSUP || errno == syscall.EOPNOTSUPP:
		return fmt.Errorf("%w: %w", volume.ErrNotSupported, err)
	case errno == syscall.EINVAL || errno == syscall.ERANGE || errno == syscall.E2BIG:
		return fmt.Errorf("%w: %w", volume.ErrInvalidArgument, err)
	}
	return err
}
