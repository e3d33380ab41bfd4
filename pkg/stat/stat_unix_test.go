//go:build linux || darwin

package stat

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestFromUnixMatchesHost(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("hello"), 0o640); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0o640); err != nil {
		t.Fatal(err)
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		t.Fatal(err)
	}

	n := FromUnix(&st)
	if !n.HasNsec {
		t.Error("HasNsec = false")
	}
	if n.Size != 5 {
		t.Errorf("Size = %d, want 5", n.Size)
	}
	if n.Mode&ModeTypeMask != ModeRegular {
		t.Errorf("Mode = %o, want regular file", n.Mode)
	}
	if n.Mode&0o777 != 0o640 {
		t.Errorf("perm = %o, want 640", n.Mode&0o777)
	}

	ex := FromNative(n)
	if ex.Btime != ex.Mtime {
		t.Error("btime differs from mtime")
	}
}
