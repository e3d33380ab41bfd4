package registry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/volbridge/pkg/volume"
	"github.com/marmos91/volbridge/pkg/volume/memory"
)

// trackedVolume counts Close calls on top of a memory volume.
type trackedVolume struct {
	*memory.Volume
	cfg    volume.ConnectConfig
	closes *atomic.Int32
}

func (v *trackedVolume) Close() error {
	v.closes.Add(1)
	return v.Volume.Close()
}

type countingConnector struct {
	connects atomic.Int32
	closes   atomic.Int32
	delay    time.Duration
	fail     error
}

func (c *countingConnector) Connect(_ context.Context, cfg volume.ConnectConfig) (volume.Volume, error) {
	c.connects.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.fail != nil {
		return nil, c.fail
	}
	return &trackedVolume{Volume: memory.New(memory.Config{}), cfg: cfg, closes: &c.closes}, nil
}

func TestAcquireSharesConnection(t *testing.T) {
	conn := &countingConnector{}
	reg := New(conn)
	ctx := context.Background()

	cfg := volume.ConnectConfig{Backend: "memory", LogFile: "/var/log/a.log"}
	cfg2 := volume.ConnectConfig{Backend: "memory", LogFile: "/var/log/b.log", LogLevel: 7}

	h1, err := reg.Acquire(ctx, "vol1", "/export/a", cfg)
	require.NoError(t, err)
	h2, err := reg.Acquire(ctx, "vol1", "/export/a", cfg2)
	require.NoError(t, err)

	assert.Same(t, h1.Volume(), h2.Volume())
	assert.NotEqual(t, h1.ID(), h2.ID())
	assert.Equal(t, int32(1), conn.connects.Load())
	assert.Equal(t, 2, reg.Refs("vol1", "/export/a"))

	// First config wins.
	tv := h1.Volume().(*trackedVolume)
	assert.Equal(t, "/var/log/a.log", tv.cfg.LogFile)
	assert.Equal(t, "vol1", tv.cfg.Volume)
	assert.Equal(t, volume.DefaultServer, tv.cfg.Server)

	require.NoError(t, reg.Release(h1))
	assert.Equal(t, int32(0), conn.closes.Load())
	assert.Equal(t, 1, reg.Len())

	require.NoError(t, reg.Release(h2))
	assert.Equal(t, int32(1), conn.closes.Load())
	assert.Equal(t, 0, reg.Len())

	h3, err := reg.Acquire(ctx, "vol1", "/export/a", cfg2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), conn.connects.Load())
	assert.Equal(t, "/var/log/b.log", h3.Volume().(*trackedVolume).cfg.LogFile)
	require.NoError(t, h3.Release())
}

func TestAcquireDistinctKeys(t *testing.T) {
	conn := &countingConnector{}
	reg := New(conn)
	ctx := context.Background()

	a, err := reg.Acquire(ctx, "vol1", "/export/a", volume.ConnectConfig{})
	require.NoError(t, err)
	b, err := reg.Acquire(ctx, "vol1", "/export/b", volume.ConnectConfig{})
	require.NoError(t, err)
	c, err := reg.Acquire(ctx, "vol2", "/export/a", volume.ConnectConfig{})
	require.NoError(t, err)

	assert.Equal(t, int32(3), conn.connects.Load())
	assert.NotSame(t, a.Volume(), b.Volume())
	assert.NotSame(t, a.Volume(), c.Volume())

	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, Key{"vol1", "/export/a"}, Key{list[0].Volume, list[0].MountPath})
	assert.Equal(t, Key{"vol1", "/export/b"}, Key{list[1].Volume, list[1].MountPath})
	assert.Equal(t, Key{"vol2", "/export/a"}, Key{list[2].Volume, list[2].MountPath})
	for _, e := range list {
		assert.Equal(t, 1, e.Refs)
		assert.Equal(t, volume.DefaultServer, e.Server)
		assert.False(t, e.CreatedAt.IsZero())
	}

	for _, h := range []*Handle{a, b, c} {
		require.NoError(t, reg.Release(h))
	}
	assert.Empty(t, reg.List())
}

func TestLifecycle(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		conn := &countingConnector{}
		reg := New(conn)
		ctx := context.Background()

		handles := make([]*Handle, 0, n)
		for range n {
			h, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
			require.NoError(t, err)
			handles = append(handles, h)
		}
		require.Equal(t, n, reg.Refs("vol", "/mnt"))

		for i, h := range handles {
			require.NoError(t, reg.Release(h))
			if i < n-1 {
				assert.Equal(t, int32(0), conn.closes.Load(), "n=%d released=%d", n, i+1)
			}
		}
		assert.Equal(t, int32(1), conn.closes.Load())

		_, ok := reg.Lookup("vol", "/mnt")
		assert.False(t, ok)

		_, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
		require.NoError(t, err)
		assert.Equal(t, int32(2), conn.connects.Load())
	}
}

func TestConcurrentAcquireConnectsOnce(t *testing.T) {
	conn := &countingConnector{delay: 10 * time.Millisecond}
	reg := New(conn)

	const workers = 32
	var wg sync.WaitGroup
	handles := make([]*Handle, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i], errs[i] = reg.Acquire(context.Background(), "vol", "/mnt", volume.ConnectConfig{})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), conn.connects.Load())
	for i := range workers {
		require.NoError(t, errs[i])
		assert.Same(t, handles[0].Volume(), handles[i].Volume())
	}
	assert.Equal(t, workers, reg.Refs("vol", "/mnt"))

	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, reg.Release(handles[i]))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), conn.closes.Load())
	assert.Equal(t, 0, reg.Len())
}

func TestReleaseRacingAcquire(t *testing.T) {
	conn := &countingConnector{}
	reg := New(conn)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				h, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
				if !assert.NoError(t, err) {
					return
				}
				// A handle is never given a torn-down volume.
				_, err = h.Volume().Stat(ctx, "/")
				assert.NoError(t, err)
				assert.NoError(t, reg.Release(h))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, conn.connects.Load(), conn.closes.Load())
}

func TestReleaseUnknownHandle(t *testing.T) {
	reg := New(&countingConnector{})
	ctx := context.Background()

	assert.ErrorIs(t, reg.Release(nil), ErrUnknownHandle)

	h, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)
	require.NoError(t, reg.Release(h))
	assert.ErrorIs(t, reg.Release(h), ErrUnknownHandle)

	other := New(&countingConnector{})
	foreign, err := other.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)
	assert.ErrorIs(t, reg.Release(foreign), ErrUnknownHandle)
	assert.Equal(t, 1, other.Refs("vol", "/mnt"))

	var zero *Handle
	assert.ErrorIs(t, zero.Release(), ErrUnknownHandle)
}

func TestDoubleReleaseKeepsOtherReferences(t *testing.T) {
	conn := &countingConnector{}
	reg := New(conn)
	ctx := context.Background()

	h1, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)
	h2, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)

	require.NoError(t, reg.Release(h1))
	assert.ErrorIs(t, reg.Release(h1), ErrUnknownHandle)
	assert.Equal(t, 1, reg.Refs("vol", "/mnt"))
	assert.Equal(t, int32(0), conn.closes.Load())

	require.NoError(t, reg.Release(h2))
	assert.Equal(t, int32(1), conn.closes.Load())
}

func TestStaleHandleAfterReconnect(t *testing.T) {
	reg := New(&countingConnector{})
	ctx := context.Background()

	old, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)
	require.NoError(t, reg.Release(old))

	fresh, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)

	assert.ErrorIs(t, reg.Release(old), ErrUnknownHandle)
	assert.Equal(t, 1, reg.Refs("vol", "/mnt"))
	require.NoError(t, reg.Release(fresh))
}

func TestConnectFailureInsertsNothing(t *testing.T) {
	cause := errors.New("server unreachable")
	conn := &countingConnector{fail: cause}
	reg := New(conn)

	h, err := reg.Acquire(context.Background(), "vol", "/mnt", volume.ConnectConfig{})
	require.Error(t, err)
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, cause)

	var ce *ConnectError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "vol", ce.Volume)
	assert.Equal(t, "/mnt", ce.MountPath)

	assert.Equal(t, 0, reg.Len())

	// The next attempt tries again.
	conn.fail = nil
	h, err = reg.Acquire(context.Background(), "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)
	assert.Equal(t, int32(2), conn.connects.Load())
	require.NoError(t, reg.Release(h))
}

func TestConnectorReturningNilVolume(t *testing.T) {
	reg := New(volume.ConnectorFunc(func(context.Context, volume.ConnectConfig) (volume.Volume, error) {
		return nil, nil
	}))

	_, err := reg.Acquire(context.Background(), "vol", "/mnt", volume.ConnectConfig{})
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.Equal(t, 0, reg.Len())
}

func TestCloseTearsDownEverything(t *testing.T) {
	conn := &countingConnector{}
	reg := New(conn)
	ctx := context.Background()

	h, err := reg.Acquire(ctx, "vol1", "/a", volume.ConnectConfig{})
	require.NoError(t, err)
	_, err = reg.Acquire(ctx, "vol2", "/b", volume.ConnectConfig{})
	require.NoError(t, err)

	require.NoError(t, reg.Close())
	assert.Equal(t, int32(2), conn.closes.Load())
	assert.Equal(t, 0, reg.Len())

	_, err = reg.Acquire(ctx, "vol1", "/a", volume.ConnectConfig{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, reg.Release(h), ErrUnknownHandle)

	require.NoError(t, reg.Close())
	assert.Equal(t, int32(2), conn.closes.Load())
}

func TestMetrics(t *testing.T) {
	promReg := prometheus.NewRegistry()
	m := NewMetrics(promReg)
	reg := New(&countingConnector{}, WithMetrics(m))
	ctx := context.Background()

	h1, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)
	h2, err := reg.Acquire(ctx, "vol", "/mnt", volume.ConnectConfig{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Entries))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Refs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AcquireTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AcquireTotal.WithLabelValues("hit")))

	require.NoError(t, reg.Release(h1))
	require.NoError(t, reg.Release(h2))
	assert.ErrorIs(t, reg.Release(h2), ErrUnknownHandle)

	assert.Equal(t, 0.0, testutil.ToFloat64(m.Entries))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Refs))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReleaseTotal.WithLabelValues("decref")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReleaseTotal.WithLabelValues("teardown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReleaseTotal.WithLabelValues("unknown")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ConnectDuration))
}
