// Package stat converts native file metadata into the extended form handed to
// file server callers.
package stat

import (
	"io/fs"
	"time"
)

// Timespec is a timestamp split into seconds and nanoseconds since the epoch.
type Timespec struct {
	Sec  int64 `json:"sec" yaml:"sec"`
	Nsec int64 `json:"nsec" yaml:"nsec"`
}

// Time returns ts as a time.Time in UTC.
func (ts Timespec) Time() time.Time {
	return time.Unix(ts.Sec, ts.Nsec).UTC()
}

// TimespecOf splits t into seconds and nanoseconds.
func TimespecOf(t time.Time) Timespec {
	return Timespec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// Native is file metadata as reported by a volume backend.
//
// HasNsec is true when the backend reports sub-second timestamps. When it is
// false the Nsec halves of the timestamps carry no information.
type Native struct {
	Dev     uint64
	Ino     uint64
	Mode    uint32
	Nlink   uint64
	UID     uint32
	GID     uint32
	Rdev    uint64
	Size    int64
	Blksize int64
	Blocks  int64
	Atime   Timespec
	Mtime   Timespec
	Ctime   Timespec
	HasNsec bool
}

// Ex is the extended metadata record returned to callers. It is built fresh
// for every query and never modified afterwards.
type Ex struct {
	Dev     uint64   `json:"dev" yaml:"dev"`
	Ino     uint64   `json:"ino" yaml:"ino"`
	Mode    uint32   `json:"mode" yaml:"mode"`
	Nlink   uint64   `json:"nlink" yaml:"nlink"`
	UID     uint32   `json:"uid" yaml:"uid"`
	GID     uint32   `json:"gid" yaml:"gid"`
	Rdev    uint64   `json:"rdev" yaml:"rdev"`
	Size    int64    `json:"size" yaml:"size"`
	Blksize int64    `json:"blksize" yaml:"blksize"`
	Blocks  int64    `json:"blocks" yaml:"blocks"`
	Atime   Timespec `json:"atime" yaml:"atime"`
	Mtime   Timespec `json:"mtime" yaml:"mtime"`
	Ctime   Timespec `json:"ctime" yaml:"ctime"`
	Btime   Timespec `json:"btime" yaml:"btime"`
}

// FromNative widens n into an Ex. Birth time is not tracked by volumes, so it
// is reported as the modification time.
func FromNative(n Native) Ex {
	ex := Ex{
		Dev:     n.Dev,
		Ino:     n.Ino,
		Mode:    n.Mode,
		Nlink:   n.Nlink,
		UID:     n.UID,
		GID:     n.GID,
		Rdev:    n.Rdev,
		Size:    n.Size,
		Blksize: n.Blksize,
		Blocks:  n.Blocks,
		Atime:   Timespec{Sec: n.Atime.Sec},
		Mtime:   Timespec{Sec: n.Mtime.Sec},
		Ctime:   Timespec{Sec: n.Ctime.Sec},
	}
	if n.HasNsec {
		ex.Atime.Nsec = n.Atime.Nsec
		ex.Mtime.Nsec = n.Mtime.Nsec
		ex.Ctime.Nsec = n.Ctime.Nsec
	}
	ex.Btime = ex.Mtime
	return ex
}

// POSIX file type bits of Mode.
const (
	ModeTypeMask uint32 = 0o170000
	ModeSocket   uint32 = 0o140000
	ModeSymlink  uint32 = 0o120000
	ModeRegular  uint32 = 0o100000
	ModeBlock    uint32 = 0o060000
	ModeDir      uint32 = 0o040000
	ModeChar     uint32 = 0o020000
	ModeFIFO     uint32 = 0o010000
)

// FileMode converts the POSIX mode bits to an fs.FileMode.
func (e Ex) FileMode() fs.FileMode {
	m := fs.FileMode(e.Mode & 0o777)
	if e.Mode&0o4000 != 0 {
		m |= fs.ModeSetuid
	}
	if e.Mode&0o2000 != 0 {
		m |= fs.ModeSetgid
	}
	if e.Mode&0o1000 != 0 {
		m |= fs.ModeSticky
	}
	switch e.Mode & ModeTypeMask {
	case ModeDir:
		m |= fs.ModeDir
	case ModeSymlink:
		m |= fs.ModeSymlink
	case ModeSocket:
		m |= fs.ModeSocket
	case ModeFIFO:
		m |= fs.ModeNamedPipe
	case ModeBlock:
		m |= fs.ModeDevice
	case ModeChar:
		m |= fs.ModeDevice | fs.ModeCharDevice
	}
	return m
}

// IsDir reports whether the record describes a directory.
func (e Ex) IsDir() bool {
	return e.Mode&ModeTypeMask == ModeDir
}
