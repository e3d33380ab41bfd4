// Package volume defines the storage-client contract used by the handle
// registry and the share layer.
//
// A Volume is one live connection to a storage volume. Connections are
// created by a Connector from a ConnectConfig and are owned by exactly one
// registry entry, which closes them when the last reference is released.
package volume

import (
	"context"
	"io"

	"github.com/marmos91/volbridge/pkg/stat"
)

// Volume is a live connection to a storage volume. Paths are absolute within
// the volume and use forward slashes. Implementations must be safe for
// concurrent use.
type Volume interface {
	io.Closer

	// Stat returns metadata for path, following symlinks.
	Stat(ctx context.Context, path string) (stat.Native, error)

	// Lstat returns metadata for path without following a final symlink.
	Lstat(ctx context.Context, path string) (stat.Native, error)

	// Statvfs returns filesystem statistics for the volume holding path.
	Statvfs(ctx context.Context, path string) (Statvfs, error)

	// GetXattr returns the value of an extended attribute. A missing
	// attribute yields ErrNoData.
	GetXattr(ctx context.Context, path, name string) ([]byte, error)

	// SetXattr creates or replaces an extended attribute. value is not
	// retained after the call returns.
	SetXattr(ctx context.Context, path, name string, value []byte) error

	// RemoveXattr deletes an extended attribute. A missing attribute yields
	// ErrNoData.
	RemoveXattr(ctx context.Context, path, name string) error

	// ListXattr returns the names of all extended attributes on path.
	ListXattr(ctx context.Context, path string) ([]string, error)
}

// Statvfs mirrors the POSIX statvfs record.
type Statvfs struct {
	Bsize   uint64 `json:"bsize" yaml:"bsize"`
	Frsize  uint64 `json:"frsize" yaml:"frsize"`
	Blocks  uint64 `json:"blocks" yaml:"blocks"`
	Bfree   uint64 `json:"bfree" yaml:"bfree"`
	Bavail  uint64 `json:"bavail" yaml:"bavail"`
	Files   uint64 `json:"files" yaml:"files"`
	Ffree   uint64 `json:"ffree" yaml:"ffree"`
	Favail  uint64 `json:"favail" yaml:"favail"`
	Fsid    uint64 `json:"fsid" yaml:"fsid"`
	Namemax uint64 `json:"namemax" yaml:"namemax"`
}

// Capabilities describes optional features of a connected volume.
type Capabilities struct {
	// NanosecondTimes is true when Stat reports sub-second timestamps.
	NanosecondTimes bool
}

// CapabilityReporter is implemented by volumes that can describe their
// optional features.
type CapabilityReporter interface {
	Capabilities() Capabilities
}

// CapabilitiesOf returns v's capabilities, or the zero value when v does not
// report any.
func CapabilitiesOf(v Volume) Capabilities {
	if r, ok := v.(CapabilityReporter); ok {
		return r.Capabilities()
	}
	return Capabilities{}
}

// HealthChecker is implemented by volumes that can probe their backend.
type HealthChecker interface {
	Healthcheck(ctx context.Context) error
}
