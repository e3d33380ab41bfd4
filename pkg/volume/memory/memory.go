// Package memory implements an in-process volume held entirely in memory.
//
// It is used by tests and for trying out share configurations without a
// storage cluster.
package memory

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/marmos91/volbridge/internal/bytesize"
	"github.com/marmos91/volbridge/pkg/stat"
	"github.com/marmos91/volbridge/pkg/volume"
)

// Config holds memory volume options.
type Config struct {
	// Capacity is the size reported by Statvfs, in bytes.
	Capacity bytesize.ByteSize `mapstructure:"capacity"`

	// Dirs and Files are created when the volume is connected.
	Dirs  []string `mapstructure:"dirs"`
	Files []string `mapstructure:"files"`
}

const (
	blockSize       = 4096
	defaultCapacity = 1 << 30
)

type node struct {
	ino    uint64
	mode   uint32
	uid    uint32
	gid    uint32
	size   int64
	target string
	atime  time.Time
	mtime  time.Time
	ctime  time.Time
	xattrs map[string][]byte
}

// Volume is an in-memory volume.
type Volume struct {
	mu      sync.RWMutex
	nodes   map[string]*node
	nextIno uint64
	cfg     Config
	closed  bool

	log    *slog.Logger
	logOut io.Closer
}

// New returns an empty volume containing only the root directory.
func New(cfg Config) *Volume {
	if cfg.Capacity == 0 {
		cfg.Capacity = defaultCapacity
	}
	v := &Volume{
		nodes:   make(map[string]*node),
		nextIno: 1,
		cfg:     cfg,
		log:     slog.New(slog.DiscardHandler),
	}
	v.nodes["/"] = v.newNode(stat.ModeDir | 0o755)
	return v
}

// Connect builds a memory volume from a connection config. Options are
// decoded into Config.
func Connect(_ context.Context, cc volume.ConnectConfig) (volume.Volume, error) {
	var cfg Config
	if err := volume.DecodeOptions(cc.Options, &cfg); err != nil {
		return nil, fmt.Errorf("invalid memory volume options: %w", err)
	}

	log, closer, err := volume.OpenLog(cc)
	if err != nil {
		return nil, err
	}

	v := New(cfg)
	v.log, v.logOut = log, closer
	for _, d := range cfg.Dirs {
		if err := v.MkdirAll(d, 0o755); err != nil {
			_ = v.Close()
			return nil, err
		}
	}
	for _, f := range cfg.Files {
		if err := v.WriteFile(f, 0o644, nil); err != nil {
			_ = v.Close()
			return nil, err
		}
	}
	v.log.Info("memory volume ready", "dirs", len(cfg.Dirs), "files", len(cfg.Files))
	return v, nil
}

func (v *Volume) newNode(mode uint32) *node {
	now := time.Now()
	n := &node{
		ino:    v.nextIno,
		mode:   mode,
		atime:  now,
		mtime:  now,
		ctime:  now,
		xattrs: make(map[string][]byte),
	}
	v.nextIno++
	return n
}

// MkdirAll creates a directory and any missing parents.
func (v *Volume) MkdirAll(p string, perm uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return volume.ErrClosed
	}
	return v.mkdirAllLocked(volume.CleanPath(p), perm)
}

func (v *Volume) mkdirAllLocked(p string, perm uint32) error {
	if n, ok := v.nodes[p]; ok {
		if n.mode&stat.ModeTypeMask != stat.ModeDir {
			return fmt.Errorf("mkdir %s: %w", p, volume.ErrInvalidArgument)
		}
		return nil
	}
	if err := v.mkdirAllLocked(path.Dir(p), perm); err != nil {
		return err
	}
	v.nodes[p] = v.newNode(stat.ModeDir | perm&0o7777)
	return nil
}

// WriteFile creates or truncates a regular file holding data. Parent
// directories must exist.
func (v *Volume) WriteFile(p string, perm uint32, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return volume.ErrClosed
	}

	p = volume.CleanPath(p)
	parent, ok := v.nodes[path.Dir(p)]
	if !ok || parent.mode&stat.ModeTypeMask != stat.ModeDir {
		return fmt.Errorf("create %s: %w", p, volume.ErrNotFound)
	}
	n, ok := v.nodes[p]
	if !ok {
		n = v.newNode(stat.ModeRegular | perm&0o7777)
		v.nodes[p] = n
	}
	n.size = int64(len(data))
	n.mtime = time.Now()
	n.ctime = n.mtime
	return nil
}

// Symlink creates a symbolic link at p pointing to target.
func (v *Volume) Symlink(target, p string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return volume.ErrClosed
	}
	p = volume.CleanPath(p)
	if _, ok := v.nodes[path.Dir(p)]; !ok {
		return fmt.Errorf("symlink %s: %w", p, volume.ErrNotFound)
	}
	n := v.newNode(stat.ModeSymlink | 0o777)
	n.target = target
	n.size = int64(len(target))
	v.nodes[p] = n
	return nil
}

// Chown sets the owner of p.
func (v *Volume) Chown(p string, uid, gid uint32) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	n, err := v.lookupLocked(p, false)
	if err != nil {
		return err
	}
	n.uid, n.gid = uid, gid
	n.ctime = time.Now()
	return nil
}

// lookupLocked resolves p, following symlinks when follow is set.
func (v *Volume) lookupLocked(p string, follow bool) (*node, error) {
	if v.closed {
		return nil, volume.ErrClosed
	}
	p = volume.CleanPath(p)
	for hops := 0; ; hops++ {
		n, ok := v.nodes[p]
		if !ok {
			return nil, fmt.Errorf("%s: %w", p, volume.ErrNotFound)
		}
		if !follow || n.mode&stat.ModeTypeMask != stat.ModeSymlink {
			return n, nil
		}
		if hops >= 40 {
			return nil, fmt.Errorf("%s: too many levels of symbolic links: %w", p, volume.ErrInvalidArgument)
		}
		if strings.HasPrefix(n.target, "/") {
			p = volume.CleanPath(n.target)
		} else {
			p = volume.CleanPath(path.Join(path.Dir(p), n.target))
		}
	}
}

func (n *node) native() stat.Native {
	blocks := (n.size + 511) / 512
	return stat.Native{
		Dev:     1,
		Ino:     n.ino,
		Mode:    n.mode,
		Nlink:   1,
		UID:     n.uid,
		GID:     n.gid,
		Size:    n.size,
		Blksize: blockSize,
		Blocks:  blocks,
		Atime:   stat.TimespecOf(n.atime),
		Mtime:   stat.TimespecOf(n.mtime),
		Ctime:   stat.TimespecOf(n.ctime),
		HasNsec: true,
	}
}

// Stat implements volume.Volume.
func (v *Volume) Stat(_ context.Context, p string) (stat.Native, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, err := v.lookupLocked(p, true)
	if err != nil {
		return stat.Native{}, err
	}
	return n.native(), nil
}

// Lstat implements volume.Volume.
func (v *Volume) Lstat(_ context.Context, p string) (stat.Native, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, err := v.lookupLocked(p, false)
	if err != nil {
		return stat.Native{}, err
	}
	return n.native(), nil
}

// Statvfs implements volume.Volume.
func (v *Volume) Statvfs(_ context.Context, p string) (volume.Statvfs, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if _, err := v.lookupLocked(p, true); err != nil {
		return volume.Statvfs{}, err
	}

	var used uint64
	for _, n := range v.nodes {
		used += uint64((n.size + blockSize - 1) / blockSize)
	}
	total := v.cfg.Capacity.Uint64() / blockSize
	free := total - min(used, total)
	files := uint64(len(v.nodes))
	return volume.Statvfs{
		Bsize:   blockSize,
		Frsize:  blockSize,
		Blocks:  total,
		Bfree:   free,
		Bavail:  free,
		Files:   files + free,
		Ffree:   free,
		Favail:  free,
		Fsid:    0x6d656d,
		Namemax: 255,
	}, nil
}

// GetXattr implements volume.Volume.
func (v *Volume) GetXattr(_ context.Context, p, name string) ([]byte, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, err := v.lookupLocked(p, true)
	if err != nil {
		return nil, err
	}
	val, ok := n.xattrs[name]
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	return slices.Clone(val), nil
}

// SetXattr implements volume.Volume.
func (v *Volume) SetXattr(_ context.Context, p, name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("empty xattr name: %w", volume.ErrInvalidArgument)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	n, err := v.lookupLocked(p, true)
	if err != nil {
		return err
	}
	n.xattrs[name] = slices.Clone(value)
	n.ctime = time.Now()
	v.log.Debug("xattr set", "path", p, "xattr", name, "size", len(value))
	return nil
}

// RemoveXattr implements volume.Volume.
func (v *Volume) RemoveXattr(_ context.Context, p, name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	n, err := v.lookupLocked(p, true)
	if err != nil {
		return err
	}
	if _, ok := n.xattrs[name]; !ok {
		return fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	delete(n.xattrs, name)
	n.ctime = time.Now()
	return nil
}

// ListXattr implements volume.Volume.
func (v *Volume) ListXattr(_ context.Context, p string) ([]string, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	n, err := v.lookupLocked(p, true)
	if err != nil {
		return nil, err
	}
	return slices.Sorted(maps.Keys(n.xattrs)), nil
}

// Capabilities implements volume.CapabilityReporter.
func (v *Volume) Capabilities() volume.Capabilities {
	return volume.Capabilities{NanosecondTimes: true}
}

// Healthcheck implements volume.HealthChecker.
func (v *Volume) Healthcheck(context.Context) error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.closed {
		return volume.ErrClosed
	}
	return nil
}

// Close releases the volume. Later calls fail with volume.ErrClosed.
func (v *Volume) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true
	v.nodes = nil
	if v.logOut != nil {
		return v.logOut.Close()
	}
	return nil
}

// Closed reports whether Close has been called.
func (v *Volume) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}
