//go:build linux || darwin

// Package local exposes a host directory as a volume.
//
// Metadata comes straight from the host through stat(2) and statfs(2).
// Extended attributes go through a pluggable xattrstore so ACLs work on
// filesystems that refuse system.posix_acl_* names from unprivileged users.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/marmos91/volbridge/pkg/stat"
	"github.com/marmos91/volbridge/pkg/volume"
	"github.com/marmos91/volbridge/pkg/xattrstore"
)

// Volume is a host directory volume.
type Volume struct {
	root   string
	xattrs xattrstore.Store
	closed atomic.Bool

	log    *slog.Logger
	logOut io.Closer
}

// Connect opens a local volume. Options decode into Config.
func Connect(ctx context.Context, cc volume.ConnectConfig) (volume.Volume, error) {
	var cfg Config
	if err := volume.DecodeOptions(cc.Options, &cfg); err != nil {
		return nil, fmt.Errorf("invalid local volume options: %w", err)
	}
	if cfg.Root == "" {
		return nil, fmt.Errorf("local volume %q: root is required: %w", cc.Volume, volume.ErrInvalidArgument)
	}
	if cfg.Xattrs.Namespace == "" {
		cfg.Xattrs.Namespace = cc.Volume
	}

	log, closer, err := volume.OpenLog(cc)
	if err != nil {
		return nil, err
	}
	v, err := Open(ctx, cfg, log)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	v.logOut = closer
	return v, nil
}

// Open opens a local volume from cfg.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Volume, error) {
	if log == nil {
		log = slog.Default()
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", cfg.Root, err)
	}
	fi, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("local volume root: %w", mapError(err))
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("local volume root %s is not a directory: %w", root, volume.ErrInvalidArgument)
	}

	store, err := OpenXattrStore(ctx, root, cfg.Xattrs, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open xattr store: %w", err)
	}
	log.Info("local volume ready", "path", root, "xattr_store", string(orNative(cfg.Xattrs.Store)))
	return &Volume{root: root, xattrs: store, log: log}, nil
}

func orNative(t xattrstore.Type) xattrstore.Type {
	if t == "" {
		return xattrstore.TypeNative
	}
	return t
}

// Root returns the host directory backing the volume.
func (v *Volume) Root() string { return v.root }

func (v *Volume) resolve(p string) (string, error) {
	if v.closed.Load() {
		return "", volume.ErrClosed
	}
	return filepath.Join(v.root, filepath.FromSlash(volume.CleanPath(p))), nil
}

// Stat implements volume.Volume.
func (v *Volume) Stat(_ context.Context, p string) (stat.Native, error) {
	full, err := v.resolve(p)
	if err != nil {
		return stat.Native{}, err
	}
	var st unix.Stat_t
	if err := unix.Stat(full, &st); err != nil {
		return stat.Native{}, fmt.Errorf("stat %s: %w", p, mapError(err))
	}
	return stat.FromUnix(&st), nil
}

// Lstat implements volume.Volume.
func (v *Volume) Lstat(_ context.Context, p string) (stat.Native, error) {
	full, err := v.resolve(p)
	if err != nil {
		return stat.Native{}, err
	}
	var st unix.Stat_t
	if err := unix.Lstat(full, &st); err != nil {
		return stat.Native{}, fmt.Errorf("lstat %s: %w", p, mapError(err))
	}
	return stat.FromUnix(&st), nil
}

// Statvfs implements volume.Volume.
func (v *Volume) Statvfs(_ context.Context, p string) (volume.Statvfs, error) {
	full, err := v.resolve(p)
	if err != nil {
		return volume.Statvfs{}, err
	}
	var st unix.Statfs_t
	if err := unix.Statfs(full, &st); err != nil {
		return volume.Statvfs{}, fmt.Errorf("statfs %s: %w", p, mapError(err))
	}
	return fromStatfs(&st), nil
}

// exists fails with ErrNotFound when p is missing, so side-database
// stores behave like the host filesystem.
func (v *Volume) exists(p string) error {
	full, err := v.resolve(p)
	if err != nil {
		return err
	}
	var st unix.Stat_t
	if err := unix.Stat(full, &st); err != nil {
		return fmt.Errorf("%s: %w", p, mapError(err))
	}
	return nil
}

// GetXattr implements volume.Volume.
func (v *Volume) GetXattr(ctx context.Context, p, name string) ([]byte, error) {
	if err := v.exists(p); err != nil {
		return nil, err
	}
	return v.xattrs.Get(ctx, volume.CleanPath(p), name)
}

// SetXattr implements volume.Volume.
func (v *Volume) SetXattr(ctx context.Context, p, name string, value []byte) error {
	if err := v.exists(p); err != nil {
		return err
	}
	if err := v.xattrs.Set(ctx, volume.CleanPath(p), name, value); err != nil {
		return err
	}
	v.log.Debug("xattr set", "path", p, "xattr", name, "size", len(value))
	return nil
}

// RemoveXattr implements volume.Volume.
func (v *Volume) RemoveXattr(ctx context.Context, p, name string) error {
	if err := v.exists(p); err != nil {
		return err
	}
	return v.xattrs.Remove(ctx, volume.CleanPath(p), name)
}

// ListXattr implements volume.Volume.
func (v *Volume) ListXattr(ctx context.Context, p string) ([]string, error) {
	if err := v.exists(p); err != nil {
		return nil, err
	}
	return v.xattrs.List(ctx, volume.CleanPath(p))
}

// Capabilities implements volume.CapabilityReporter.
func (v *Volume) Capabilities() volume.Capabilities {
	return volume.Capabilities{NanosecondTimes: true}
}

// Healthcheck implements volume.HealthChecker.
func (v *Volume) Healthcheck(ctx context.Context) error {
	if _, err := v.Stat(ctx, "/"); err != nil {
		return err
	}
	if hc, ok := v.xattrs.(volume.HealthChecker); ok {
		return hc.Healthcheck(ctx)
	}
	return nil
}

// Close releases the xattr store and the log sink.
func (v *Volume) Close() error {
	if !v.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := v.xattrs.Close()
	if v.logOut != nil {
		err = errors.Join(err, v.logOut.Close())
	}
	return err
}

func mapError(err error) error {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch errno {
	case unix.ENOENT, unix.ENOTDIR:
		return fmt.Errorf("%w: %w", volume.ErrNotFound, err)
	case unix.EINVAL, unix.ENAMETOOLONG, unix.ELOOP:
		return fmt.Errorf("%w: %w", volume.ErrInvalidArgument, err)
	case unix.ENOTSUP:
		return fmt.Errorf("%w: %w", volume.ErrNotSupported, err)
	}
	return err
}
