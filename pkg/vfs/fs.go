package vfs

import (
	"context"
	"fmt"
	"strings"

	"github.com/marmos91/volbridge/internal/telemetry"
	"github.com/marmos91/volbridge/pkg/stat"
	"github.com/marmos91/volbridge/pkg/volume"
)

// Stat returns the extended metadata of path, following symlinks.
func (s *Share) Stat(ctx context.Context, path string) (_ stat.Ex, err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "stat", path)
	defer func() { telemetry.EndSpan(span, err) }()

	v, err := s.volume()
	if err != nil {
		return stat.Ex{}, err
	}
	n, err := v.Stat(ctx, path)
	if err != nil {
		return stat.Ex{}, fmt.Errorf("stat %s: %w", path, err)
	}
	return stat.FromNative(n), nil
}

// Lstat is Stat without following a final symlink.
func (s *Share) Lstat(ctx context.Context, path string) (_ stat.Ex, err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "lstat", path)
	defer func() { telemetry.EndSpan(span, err) }()

	v, err := s.volume()
	if err != nil {
		return stat.Ex{}, err
	}
	n, err := v.Lstat(ctx, path)
	if err != nil {
		return stat.Ex{}, fmt.Errorf("lstat %s: %w", path, err)
	}
	return stat.FromNative(n), nil
}

// FSCapability is a bit in the file system attribute flags reported to
// clients.
type FSCapability uint32

const (
	CaseSensitiveSearch FSCapability = 0x00000001
	CasePreservedNames  FSCapability = 0x00000002
)

func (c FSCapability) String() string {
	var parts []string
	if c&CaseSensitiveSearch != 0 {
		parts = append(parts, "case_sensitive_search")
	}
	if c&CasePreservedNames != 0 {
		parts = append(parts, "case_preserved_names")
	}
	if rest := c &^ (CaseSensitiveSearch | CasePreservedNames); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// TimestampResolution is the finest timestamp granularity a share can set.
type TimestampResolution int

const (
	TimestampSeconds TimestampResolution = iota
	TimestampMsec
	TimestampNTOrBetter
)

func (r TimestampResolution) String() string {
	switch r {
	case TimestampSeconds:
		return "seconds"
	case TimestampMsec:
		return "msec"
	case TimestampNTOrBetter:
		return "nt_or_better"
	default:
		return fmt.Sprintf("resolution(%d)", int(r))
	}
}

const defaultCapabilities = CaseSensitiveSearch | CasePreservedNames

// FSCapabilities reports the share's file system capabilities and timestamp
// resolution.
func (s *Share) FSCapabilities() (FSCapability, TimestampResolution, error) {
	v, err := s.volume()
	if err != nil {
		return 0, 0, err
	}
	res := TimestampSeconds
	if volume.CapabilitiesOf(v).NanosecondTimes {
		res = TimestampNTOrBetter
	}
	return defaultCapabilities, res, nil
}

// Statvfs is the file system summary handed to clients.
type Statvfs struct {
	OptimalTransferSize uint64       `json:"optimal_transfer_size" yaml:"optimal_transfer_size"`
	BlockSize           uint64       `json:"block_size" yaml:"block_size"`
	TotalBlocks         uint64       `json:"total_blocks" yaml:"total_blocks"`
	BlocksAvail         uint64       `json:"blocks_avail" yaml:"blocks_avail"`
	UserBlocksAvail     uint64       `json:"user_blocks_avail" yaml:"user_blocks_avail"`
	TotalFileNodes      uint64       `json:"total_file_nodes" yaml:"total_file_nodes"`
	FreeFileNodes       uint64       `json:"free_file_nodes" yaml:"free_file_nodes"`
	FsIdentifier        uint64       `json:"fs_identifier" yaml:"fs_identifier"`
	FsCapabilities      FSCapability `json:"fs_capabilities" yaml:"fs_capabilities"`
}

// Statvfs returns file system statistics for the volume holding path.
func (s *Share) Statvfs(ctx context.Context, path string) (_ Statvfs, err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "statvfs", path)
	defer func() { telemetry.EndSpan(span, err) }()

	st, err := s.statvfs(ctx, path)
	if err != nil {
		return Statvfs{}, err
	}
	return Statvfs{
		OptimalTransferSize: st.Frsize,
		BlockSize:           st.Bsize,
		TotalBlocks:         st.Blocks,
		BlocksAvail:         st.Bfree,
		UserBlocksAvail:     st.Bavail,
		TotalFileNodes:      st.Files,
		FreeFileNodes:       st.Ffree,
		FsIdentifier:        st.Fsid,
		FsCapabilities:      defaultCapabilities,
	}, nil
}

// DiskFree reports the block size, the blocks available to unprivileged
// users and the total block count of the volume holding path.
func (s *Share) DiskFree(ctx context.Context, path string) (bsize, dfree, dsize uint64, err error) {
	ctx, span := telemetry.StartShareSpan(ctx, s.name, "disk_free", path)
	defer func() { telemetry.EndSpan(span, err) }()

	st, err := s.statvfs(ctx, path)
	if err != nil {
		return 0, 0, 0, err
	}
	return st.Bsize, st.Bavail, st.Blocks, nil
}

func (s *Share) statvfs(ctx context.Context, path string) (volume.Statvfs, error) {
	v, err := s.volume()
	if err != nil {
		return volume.Statvfs{}, err
	}
	st, err := v.Statvfs(ctx, path)
	if err != nil {
		return volume.Statvfs{}, fmt.Errorf("statvfs %s: %w", path, err)
	}
	return st, nil
}
