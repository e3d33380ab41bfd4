//go:build ceph

package ceph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"syscall"

	"github.com/ceph/go-ceph/cephfs"
	"github.com/ceph/go-ceph/rados"

	"github.com/marmos91/volbridge/pkg/stat"
	"github.com/marmos91/volbridge/pkg/volume"
)

// Volume is a mounted CephFS filesystem.
type Volume struct {
	mu     sync.RWMutex
	conn   *rados.Conn
	mount  *cephfs.MountInfo
	closed bool

	log    *slog.Logger
	logOut io.Closer
}

// Connect mounts the filesystem described by cc.
func Connect(_ context.Context, cc volume.ConnectConfig) (volume.Volume, error) {
	var cfg Config
	if err := volume.DecodeOptions(cc.Options, &cfg); err != nil {
		return nil, fmt.Errorf("invalid ceph volume options: %w", err)
	}
	if cfg.Filesystem == "" {
		cfg.Filesystem = cc.Volume
	}

	log, closer, err := volume.OpenLog(cc)
	if err != nil {
		return nil, err
	}
	v, err := mount(cfg, log)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	v.logOut = closer
	if len(cc.Xlators) > 0 {
		log.Debug("translator options ignored by cephfs", "count", len(cc.Xlators))
	}
	return v, nil
}

func mount(cfg Config, log *slog.Logger) (*Volume, error) {
	var (
		conn *rados.Conn
		err  error
	)
	if cfg.ClientID != "" {
		conn, err = rados.NewConnWithUser(cfg.ClientID)
	} else {
		conn, err = rados.NewConn()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create rados connection: %w", err)
	}

	if cfg.ConfigFile != "" {
		err = conn.ReadConfigFile(cfg.ConfigFile)
	} else {
		err = conn.ReadDefaultConfigFile()
	}
	if err != nil {
		conn.Shutdown()
		return nil, fmt.Errorf("failed to read ceph config: %w", err)
	}
	for k, val := range map[string]string{"keyring": cfg.Keyring, "mon_host": cfg.MonHost} {
		if val == "" {
			continue
		}
		if err := conn.SetConfigOption(k, val); err != nil {
			conn.Shutdown()
			return nil, fmt.Errorf("failed to set ceph option %s: %w", k, err)
		}
	}
	if err := conn.Connect(); err != nil {
		conn.Shutdown()
		return nil, fmt.Errorf("failed to connect to ceph cluster: %w", err)
	}

	m, err := cephfs.CreateFromRados(conn)
	if err != nil {
		conn.Shutdown()
		return nil, fmt.Errorf("failed to create cephfs mount: %w", err)
	}
	if cfg.Filesystem != "" {
		if err := m.SelectFilesystem(cfg.Filesystem); err != nil {
			_ = m.Release()
			conn.Shutdown()
			return nil, fmt.Errorf("failed to select filesystem %q: %w", cfg.Filesystem, err)
		}
	}
	if cfg.Root != "" {
		err = m.MountWithRoot(cfg.Root)
	} else {
		err = m.Mount()
	}
	if err != nil {
		_ = m.Release()
		conn.Shutdown()
		return nil, fmt.Errorf("failed to mount cephfs: %w", mapError(err))
	}

	log.Info("cephfs mounted", "filesystem", cfg.Filesystem, "path", cfg.Root)
	return &Volume{conn: conn, mount: m, log: log}, nil
}

func (v *Volume) statx(p string, flags cephfs.AtFlags) (stat.Native, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return stat.Native{}, volume.ErrClosed
	}
	sx, err := v.mount.Statx(volume.CleanPath(p), cephfs.StatxBasicStats, flags)
	if err != nil {
		return stat.Native{}, fmt.Errorf("statx %s: %w", p, mapError(err))
	}
	return stat.Native{
		Dev:     uint64(sx.Dev),
		Ino:     uint64(sx.Inode),
		Mode:    uint32(sx.Mode),
		Nlink:   uint64(sx.Nlink),
		UID:     uint32(sx.Uid),
		GID:     uint32(sx.Gid),
		Rdev:    uint64(sx.Rdev),
		Size:    int64(sx.Size),
		Blksize: int64(sx.Blksize),
		Blocks:  int64(sx.Blocks),
		Atime:   stat.Timespec{Sec: int64(sx.Atime.Sec), Nsec: int64(sx.Atime.Nsec)},
		Mtime:   stat.Timespec{Sec: int64(sx.Mtime.Sec), Nsec: int64(sx.Mtime.Nsec)},
		Ctime:   stat.Timespec{Sec: int64(sx.Ctime.Sec), Nsec: int64(sx.Ctime.Nsec)},
		HasNsec: true,
	}, nil
}

// Stat implements volume.Volume.
func (v *Volume) Stat(_ context.Context, p string) (stat.Native, error) {
	return v.statx(p, 0)
}

// Lstat implements volume.Volume.
func (v *Volume) Lstat(_ context.Context, p string) (stat.Native, error) {
	return v.statx(p, cephfs.AtSymlinkNofollow)
}

// Statvfs implements volume.Volume.
func (v *Volume) Statvfs(_ context.Context, p string) (volume.Statvfs, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return volume.Statvfs{}, volume.ErrClosed
	}
	st, err := v.mount.StatFS(volume.CleanPath(p))
	if err != nil {
		return volume.Statvfs{}, fmt.Errorf("statfs %s: %w", p, mapError(err))
	}
	return volume.Statvfs{
		Bsize:   uint64(st.Bsize),
		Frsize:  uint64(st.Frsize),
		Blocks:  uint64(st.Blocks),
		Bfree:   uint64(st.BFree),
		Bavail:  uint64(st.BAvail),
		Files:   uint64(st.Files),
		Ffree:   uint64(st.FFree),
		Favail:  uint64(st.FAvail),
		Fsid:    uint64(st.Fsid),
		Namemax: uint64(st.Namemax),
	}, nil
}

// GetXattr implements volume.Volume.
func (v *Volume) GetXattr(_ context.Context, p, name string) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return nil, volume.ErrClosed
	}
	val, err := v.mount.GetXattr(volume.CleanPath(p), name)
	if err != nil {
		return nil, fmt.Errorf("getxattr %s %s: %w", p, name, mapError(err))
	}
	return val, nil
}

// SetXattr implements volume.Volume.
func (v *Volume) SetXattr(_ context.Context, p, name string, value []byte) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return volume.ErrClosed
	}
	if err := v.mount.SetXattr(volume.CleanPath(p), name, value, 0); err != nil {
		return fmt.Errorf("setxattr %s %s: %w", p, name, mapError(err))
	}
	return nil
}

// RemoveXattr implements volume.Volume.
func (v *Volume) RemoveXattr(_ context.Context, p, name string) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return volume.ErrClosed
	}
	if err := v.mount.RemoveXattr(volume.CleanPath(p), name); err != nil {
		return fmt.Errorf("removexattr %s %s: %w", p, name, mapError(err))
	}
	return nil
}

// ListXattr implements volume.Volume.
func (v *Volume) ListXattr(_ context.Context, p string) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return nil, volume.ErrClosed
	}
	names, err := v.mount.ListXattr(volume.CleanPath(p))
	if err != nil {
		return nil, fmt.Errorf("listxattr %s: %w", p, mapError(err))
	}
	slices.Sort(names)
	return names, nil
}

// Capabilities implements volume.CapabilityReporter.
func (v *Volume) Capabilities() volume.Capabilities {
	return volume.Capabilities{NanosecondTimes: true}
}

// Healthcheck implements volume.HealthChecker.
func (v *Volume) Healthcheck(ctx context.Context) error {
	_, err := v.Stat(ctx, "/")
	return err
}

// Close unmounts and shuts the cluster connection down.
func (v *Volume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	err := v.mount.Unmount()
	err = errors.Join(err, v.mount.Release())
	v.conn.Shutdown()
	if v.logOut != nil {
		err = errors.Join(err, v.logOut.Close())
	}
	return err
}

// mapError translates libcephfs errno codes.
func mapError(err error) error {
	var coded interface{ ErrorCode() int }
	if !errors.As(err, &coded) {
		return err
	}
	errno := syscall.Errno(-coded.ErrorCode())
	switch errno {
	case syscall.ENOENT, syscall.ENOTDIR:
		return fmt.Errorf("%w: %w", volume.ErrNotFound, err)
	case syscall.ENODATA:
		return fmt.Errorf("%w: %w", volume.ErrNoData, err)
	case syscall.EOPNOTSUPP:
		return fmt.Errorf("%w: %w", volume.ErrNotSupported, err)
	case syscall.EINVAL, syscall.ERANGE:
		return fmt.Errorf("%w: %w", volume.ErrInvalidArgument, err)
	}
	return err
}
