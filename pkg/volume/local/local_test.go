//go:build linux || darwin

package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/volbridge/pkg/stat"
	"github.com/marmos91/volbridge/pkg/volume"
	"github.com/marmos91/volbridge/pkg/xattrstore"
)

func newVolume(t *testing.T, store xattrstore.Type) (*Volume, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "export", "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "export", "a", "f.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Symlink("f.txt", filepath.Join(root, "export", "a", "link")))

	path := ""
	if store == xattrstore.TypeSQLite {
		path = filepath.Join(t.TempDir(), "xattrs.db")
	}
	v, err := Open(context.Background(), Config{
		Root:   root,
		Xattrs: XattrConfig{Store: store, Path: path, Namespace: "vol1"},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })
	return v, root
}

func TestStatAndLstat(t *testing.T) {
	v, _ := newVolume(t, xattrstore.TypeSQLite)
	ctx := context.Background()

	st, err := v.Stat(ctx, "/export/a/link")
	require.NoError(t, err)
	assert.Equal(t, stat.ModeRegular, st.Mode&stat.ModeTypeMask)
	assert.Equal(t, int64(5), st.Size)
	assert.True(t, st.HasNsec)

	lst, err := v.Lstat(ctx, "export/a/link")
	require.NoError(t, err)
	assert.Equal(t, stat.ModeSymlink, lst.Mode&stat.ModeTypeMask)

	_, err = v.Stat(ctx, "/export/missing")
	assert.ErrorIs(t, err, volume.ErrNotFound)
}

func TestStatvfs(t *testing.T) {
	v, _ := newVolume(t, xattrstore.TypeSQLite)
	fs, err := v.Statvfs(context.Background(), "/export")
	require.NoError(t, err)
	assert.NotZero(t, fs.Bsize)
	assert.NotZero(t, fs.Frsize)
	assert.NotZero(t, fs.Blocks)
	assert.LessOrEqual(t, fs.Bavail, fs.Blocks)
}

func TestXattrsThroughSideStore(t *testing.T) {
	for _, store := range []xattrstore.Type{xattrstore.TypeSQLite, xattrstore.TypeBadger} {
		t.Run(string(store), func(t *testing.T) {
			v, _ := newVolume(t, store)
			ctx := context.Background()

			require.NoError(t, v.SetXattr(ctx, "/export/a", "system.posix_acl_default", []byte{2, 0, 0, 0}))
			got, err := v.GetXattr(ctx, "/export/a/", "system.posix_acl_default")
			require.NoError(t, err)
			assert.Equal(t, []byte{2, 0, 0, 0}, got)

			names, err := v.ListXattr(ctx, "/export/a")
			require.NoError(t, err)
			assert.Equal(t, []string{"system.posix_acl_default"}, names)

			require.NoError(t, v.RemoveXattr(ctx, "/export/a", "system.posix_acl_default"))
			_, err = v.GetXattr(ctx, "/export/a", "system.posix_acl_default")
			assert.ErrorIs(t, err, volume.ErrNoData)
		})
	}
}

func TestXattrOnMissingPath(t *testing.T) {
	v, _ := newVolume(t, xattrstore.TypeSQLite)
	err := v.SetXattr(context.Background(), "/nope", "user.k", nil)
	assert.ErrorIs(t, err, volume.ErrNotFound)
}

func TestConnect(t *testing.T) {
	root := t.TempDir()
	vol, err := Connect(context.Background(), volume.ConnectConfig{
		Backend:  "local",
		Volume:   "vol1",
		LogLevel: 0,
		Options: map[string]any{
			"root": root,
			"xattrs": map[string]any{
				"store": "sqlite",
				"path":  ".volbridge/xattrs.db",
			},
		},
	})
	require.NoError(t, err)
	defer vol.Close()

	_, err = os.Stat(filepath.Join(root, ".volbridge", "xattrs.db"))
	assert.NoError(t, err, "relative store path resolves against root")
	assert.NoError(t, vol.(volume.HealthChecker).Healthcheck(context.Background()))
	assert.True(t, volume.CapabilitiesOf(vol).NanosecondTimes)
}

func TestConnectErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Connect(ctx, volume.ConnectConfig{Volume: "vol1"})
	assert.ErrorIs(t, err, volume.ErrInvalidArgument)

	_, err = Connect(ctx, volume.ConnectConfig{Options: map[string]any{"root": "/definitely/not/here"}})
	assert.ErrorIs(t, err, volume.ErrNotFound)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	_, err = Connect(ctx, volume.ConnectConfig{Options: map[string]any{"root": file}})
	assert.ErrorIs(t, err, volume.ErrInvalidArgument)

	_, err = Connect(ctx, volume.ConnectConfig{Options: map[string]any{
		"root":   t.TempDir(),
		"xattrs": map[string]any{"store": "etcd"},
	}})
	assert.Error(t, err)
}

func TestClose(t *testing.T) {
	v, _ := newVolume(t, xattrstore.TypeSQLite)
	require.NoError(t, v.Close())
	require.NoError(t, v.Close())

	_, err := v.Stat(context.Background(), "/")
	assert.ErrorIs(t, err, volume.ErrClosed)
	assert.ErrorIs(t, v.SetXattr(context.Background(), "/", "user.k", nil), volume.ErrClosed)
}
