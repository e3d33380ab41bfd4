package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/volbridge/pkg/acl"
	"github.com/marmos91/volbridge/pkg/api"
	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/vfs"
	"github.com/marmos91/volbridge/pkg/volume/backends"
)

func newServer(t *testing.T) *Client {
	t.Helper()
	reg := registry.New(backends.Connector())
	shares := vfs.NewShares(reg)
	_, err := shares.Connect(context.Background(), vfs.ShareConfig{
		Name:    "scratch",
		Path:    "/",
		Backend: backends.Memory,
		Options: map[string]any{"dirs": []string{"/tmp"}},
	})
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewRouter(reg, shares))
	t.Cleanup(func() {
		srv.Close()
		_ = shares.Close()
		_ = reg.Close()
	})
	return New(srv.URL + "/")
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", New("http://localhost:8080/").baseURL)
}

func TestReadyAndHandles(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	h, err := c.Ready(ctx)
	require.NoError(t, err)
	assert.Equal(t, Health{Shares: 1, Connections: 1}, h)

	entries, err := c.ListHandles(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "scratch", entries[0].Volume)
	assert.Equal(t, 1, entries[0].Refs)
}

func TestShareQueries(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	shares, err := c.ListShares(ctx)
	require.NoError(t, err)
	require.Len(t, shares, 1)
	assert.Equal(t, "nt_or_better", shares[0].TimestampResolution)

	st, err := c.Stat(ctx, "scratch", "/tmp", false)
	require.NoError(t, err)
	assert.NotZero(t, st.Ino)

	df, err := c.DiskFree(ctx, "scratch", "")
	require.NoError(t, err)
	assert.Equal(t, uint64(4096), df.BlockSize)

	_, err = c.GetShare(ctx, "missing")
	assert.True(t, IsNotFound(err))
}

func TestACLRoundTrip(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	want, err := acl.Parse("user::rwx,group::r-x,mask::r-x,other::---")
	require.NoError(t, err)
	require.NoError(t, c.SetACL(ctx, "scratch", "/tmp", acl.TypeDefault, want))

	got, err := c.GetACL(ctx, "scratch", "/tmp", acl.TypeDefault)
	require.NoError(t, err)
	assert.Equal(t, want.String(), got.Text)

	names, err := c.ListXattrs(ctx, "scratch", "/tmp")
	require.NoError(t, err)
	assert.Contains(t, names, acl.XattrDefault)

	require.NoError(t, c.DeleteDefaultACL(ctx, "scratch", "/tmp"))
	_, err = c.GetACL(ctx, "scratch", "/tmp", acl.TypeDefault)
	assert.True(t, IsNotFound(err))
}

func TestErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Ready(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.Contains(t, err.Error(), "upstream down")
}
