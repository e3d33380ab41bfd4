package local

import (
	"golang.org/x/sys/unix"

	"github.com/marmos91/volbridge/pkg/volume"
)

func fromStatfs(st *unix.Statfs_t) volume.Statvfs {
	return volume.Statvfs{
		Bsize:   uint64(st.Bsize),
		Frsize:  uint64(st.Bsize),
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bavail,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Favail:  st.Ffree,
		Fsid:    uint64(uint32(st.Fsid.Val[0]))<<32 | uint64(uint32(st.Fsid.Val[1])),
		Namemax: 255,
	}
}
