//go:build darwin

package stat

import "golang.org/x/sys/unix"

// FromUnix converts a host stat record.
func FromUnix(st *unix.Stat_t) Native {
	return Native{
		Dev:     uint64(st.Dev),
		Ino:     st.Ino,
		Mode:    uint32(st.Mode),
		Nlink:   uint64(st.Nlink),
		UID:     st.Uid,
		GID:     st.Gid,
		Rdev:    uint64(st.Rdev),
		Size:    st.Size,
		Blksize: int64(st.Blksize),
		Blocks:  st.Blocks,
		Atime:   Timespec{Sec: st.Atim.Sec, Nsec: st.Atim.Nsec},
		Mtime:   Timespec{Sec: st.Mtim.Sec, Nsec: st.Mtim.Nsec},
		Ctime:   Timespec{Sec: st.Ctim.Sec, Nsec: st.Ctim.Nsec},
		HasNsec: true,
	}
}
