package s3

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/volbridge/pkg/stat"
	"github.com/marmos91/volbridge/pkg/volume"
)

func newTestVolume(t *testing.T) (*Volume, *fakeS3) {
	t.Helper()
	fake := newFakeS3("vol1")
	fake.add("exports/export/a/file.txt", 42, map[string]string{
		"mode": "640",
		"uid":  "1000",
		"gid":  "100",
	})
	fake.add("exports/export/plain", 0, nil)
	v := New(fake, Config{Bucket: "vol1", KeyPrefix: "exports/"}, nil)
	t.Cleanup(func() { _ = v.Close() })
	return v, fake
}

func TestStatFile(t *testing.T) {
	v, _ := newTestVolume(t)
	st, err := v.Stat(context.Background(), "/export/a/file.txt")
	require.NoError(t, err)

	assert.Equal(t, stat.ModeRegular|0o640, st.Mode)
	assert.Equal(t, uint32(1000), st.UID)
	assert.Equal(t, uint32(100), st.GID)
	assert.Equal(t, int64(42), st.Size)
	assert.Equal(t, int64(1700000000), st.Mtime.Sec)
	assert.False(t, st.HasNsec)
}

func TestStatDefaultsWithoutMetadata(t *testing.T) {
	v, _ := newTestVolume(t)
	st, err := v.Lstat(context.Background(), "export/plain")
	require.NoError(t, err)
	assert.Equal(t, stat.ModeRegular|0o644, st.Mode)
	assert.Zero(t, st.UID)
}

func TestStatImpliedDirectory(t *testing.T) {
	v, _ := newTestVolume(t)
	ctx := context.Background()

	for _, p := range []string{"/", "/export", "/export/a/"} {
		st, err := v.Stat(ctx, p)
		require.NoError(t, err, p)
		assert.Equal(t, stat.ModeDir|0o755, st.Mode, p)
	}

	_, err := v.Stat(ctx, "/export/missing")
	assert.ErrorIs(t, err, volume.ErrNotFound)
}

func TestXattrOnFileUsesCopyObject(t *testing.T) {
	v, fake := newTestVolume(t)
	ctx := context.Background()
	acl := []byte{2, 0, 0, 0, 1, 0, 6, 0, 0xff, 0xff, 0xff, 0xff}

	require.NoError(t, v.SetXattr(ctx, "/export/a/file.txt", "system.posix_acl_access", acl))
	assert.Equal(t, 1, fake.copies)
	assert.Equal(t, 0, fake.puts)

	got, err := v.GetXattr(ctx, "/export/a/file.txt", "system.posix_acl_access")
	require.NoError(t, err)
	assert.Equal(t, acl, got)

	// Existing metadata survives the rewrite.
	st, err := v.Stat(ctx, "/export/a/file.txt")
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), st.UID)
	assert.Equal(t, int64(42), st.Size)

	stored := fake.objects["exports/export/a/file.txt"].meta[xattrKey("system.posix_acl_access")]
	assert.Equal(t, base64.StdEncoding.EncodeToString(acl), stored)
}

func TestXattrOnImpliedDirectoryCreatesMarker(t *testing.T) {
	v, fake := newTestVolume(t)
	ctx := context.Background()

	require.NoError(t, v.SetXattr(ctx, "/export/a", "user.k", []byte("v")))
	assert.Equal(t, 1, fake.puts)
	assert.Contains(t, fake.objects, "exports/export/a/.keep")

	require.NoError(t, v.SetXattr(ctx, "/export/a", "user.j", nil))
	assert.Equal(t, 1, fake.copies, "second write rewrites the marker")

	names, err := v.ListXattr(ctx, "/export/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"user.j", "user.k"}, names)

	got, err := v.GetXattr(ctx, "/export/a", "user.j")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRemoveXattr(t *testing.T) {
	v, _ := newTestVolume(t)
	ctx := context.Background()

	require.NoError(t, v.SetXattr(ctx, "/", "user.root", []byte("1")))
	require.NoError(t, v.RemoveXattr(ctx, "/", "user.root"))
	_, err := v.GetXattr(ctx, "/", "user.root")
	assert.ErrorIs(t, err, volume.ErrNoData)
	assert.ErrorIs(t, v.RemoveXattr(ctx, "/", "user.root"), volume.ErrNoData)
}

func TestXattrMetadataLimit(t *testing.T) {
	v, _ := newTestVolume(t)
	err := v.SetXattr(context.Background(), "/export/plain", "user.big", []byte(strings.Repeat("x", 2048)))
	assert.ErrorIs(t, err, volume.ErrInvalidArgument)
}

func TestStatvfs(t *testing.T) {
	v, _ := newTestVolume(t)
	fs, err := v.Statvfs(context.Background(), "/")
	require.NoError(t, err)
	assert.Equal(t, uint64(blockSize), fs.Bsize)
	assert.Equal(t, uint64(defaultCapacity/blockSize), fs.Blocks)
	assert.Equal(t, fs.Blocks, fs.Bavail)
}

func TestHealthcheck(t *testing.T) {
	v, _ := newTestVolume(t)
	assert.NoError(t, v.Healthcheck(context.Background()))

	other := New(newFakeS3("other"), Config{Bucket: "vol1"}, nil)
	assert.ErrorIs(t, other.Healthcheck(context.Background()), volume.ErrNotFound)
}

func TestClosed(t *testing.T) {
	v, _ := newTestVolume(t)
	require.NoError(t, v.Close())
	_, err := v.Stat(context.Background(), "/")
	assert.ErrorIs(t, err, volume.ErrClosed)
	assert.False(t, volume.CapabilitiesOf(v).NanosecondTimes)
}
