// Package registry shares live volume connections between mounts.
//
// Every distinct (volume, mount path) pair owns at most one connection. The
// first Acquire of a key establishes it, later acquisitions share it, and the
// Release that drops the reference count to zero tears it down.
//
// Example usage:
//
//	reg := registry.New(backends.Connector())
//	h, err := reg.Acquire(ctx, "vol1", "/export/a", cfg)
//	if err != nil {
//	    return err
//	}
//	defer reg.Release(h)
//	st, err := h.Volume().Stat(ctx, "/")
package registry

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/volbridge/internal/logger"
	"github.com/marmos91/volbridge/internal/telemetry"
	"github.com/marmos91/volbridge/pkg/volume"
)

// Key identifies a registry entry.
type Key struct {
	Volume    string
	MountPath string
}

func (k Key) String() string {
	return k.Volume + ":" + k.MountPath
}

// Entry is a point-in-time view of one registry entry.
type Entry struct {
	Volume    string    `json:"volume" yaml:"volume"`
	MountPath string    `json:"mount_path" yaml:"mount_path"`
	Backend   string    `json:"backend" yaml:"backend"`
	Server    string    `json:"volfile_server" yaml:"volfile_server"`
	Refs      int       `json:"refs" yaml:"refs"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type entry struct {
	key     Key
	vol     volume.Volume
	cfg     volume.ConnectConfig
	handles map[uuid.UUID]struct{}
	created time.Time
}

func (e *entry) refs() int {
	return len(e.handles)
}

// Handle is one outstanding acquisition. It stays valid until passed to
// Release; the underlying volume is shared with every other handle of the
// same key.
type Handle struct {
	id  uuid.UUID
	key Key
	vol volume.Volume
	reg *Registry
}

// ID returns the acquisition id.
func (h *Handle) ID() uuid.UUID { return h.id }

// Key returns the registry key the handle was acquired under.
func (h *Handle) Key() Key { return h.key }

// Volume returns the shared connection.
func (h *Handle) Volume() volume.Volume { return h.vol }

// Release is shorthand for h's registry Release.
func (h *Handle) Release() error {
	if h == nil || h.reg == nil {
		return ErrUnknownHandle
	}
	return h.reg.Release(h)
}

// Option configures a Registry.
type Option func(*Registry)

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// Registry is the table of live connections. The zero value is not usable;
// create one with New.
//
// A single mutex covers the whole table. Connection establishment on a miss
// runs while holding it so that concurrent acquirers of a new key never
// connect twice.
type Registry struct {
	mu        sync.Mutex
	entries   map[Key]*entry
	connector volume.Connector
	metrics   *Metrics
	closed    bool
}

// New creates an empty registry that establishes connections through c.
func New(c volume.Connector, opts ...Option) *Registry {
	r := &Registry{
		entries:   make(map[Key]*entry),
		connector: c,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire returns a handle on the connection for (vol, mountPath),
// establishing it with cfg if none is live. On a hit cfg is ignored: the
// configuration of the first acquirer stays in effect.
func (r *Registry) Acquire(ctx context.Context, vol, mountPath string, cfg volume.ConnectConfig) (h *Handle, err error) {
	key := Key{Volume: vol, MountPath: mountPath}

	ctx, span := telemetry.StartRegistrySpan(ctx, telemetry.SpanAcquire, vol, mountPath)
	defer func() { telemetry.EndSpan(span, err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	if e, ok := r.entries[key]; ok {
		if !e.cfg.Equal(withVolume(cfg, vol)) {
			logger.WarnCtx(ctx, "Ignoring connect config for shared connection",
				logger.KeyVolume, vol, logger.KeyMountPath, mountPath,
				logger.KeyBackend, e.cfg.Backend)
		}
		h = r.newHandle(e)
		span.SetAttributes(telemetry.CacheHit(true), telemetry.Refs(e.refs()))
		r.metrics.acquired("hit")
		r.updateGauges()
		logger.DebugCtx(ctx, "Acquired shared connection",
			logger.KeyVolume, vol, logger.KeyMountPath, mountPath,
			logger.KeyRefs, e.refs(), logger.KeyHandle, h.id.String())
		return h, nil
	}

	span.SetAttributes(telemetry.CacheHit(false))

	e, err := r.connect(ctx, key, withVolume(cfg, vol))
	if err != nil {
		r.metrics.acquired("error")
		logger.ErrorCtx(ctx, "Connection failed",
			logger.KeyVolume, vol, logger.KeyMountPath, mountPath, logger.Err(err))
		return nil, err
	}

	r.entries[key] = e
	h = r.newHandle(e)
	r.metrics.acquired("miss")
	r.updateGauges()
	logger.InfoCtx(ctx, "Connection established",
		logger.KeyVolume, vol, logger.KeyMountPath, mountPath,
		logger.KeyBackend, e.cfg.Backend, logger.KeyServer, e.cfg.Server)
	return h, nil
}

// connect establishes the connection for key. Must be called with r.mu held.
func (r *Registry) connect(ctx context.Context, key Key, cfg volume.ConnectConfig) (*entry, error) {
	ctx, span := telemetry.StartRegistrySpan(ctx, telemetry.SpanConnect, key.Volume, key.MountPath,
		telemetry.Backend(cfg.Backend), telemetry.Server(cfg.Server))
	start := time.Now()

	v, err := r.connector.Connect(ctx, cfg)
	r.metrics.connected(time.Since(start).Seconds())
	if err == nil && v == nil {
		err = errors.New("connector returned no volume")
	}
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, &ConnectError{Volume: key.Volume, MountPath: key.MountPath, Err: err}
	}

	return &entry{
		key:     key,
		vol:     v,
		cfg:     cfg,
		handles: make(map[uuid.UUID]struct{}),
		created: time.Now(),
	}, nil
}

func (r *Registry) newHandle(e *entry) *Handle {
	h := &Handle{id: uuid.New(), key: e.key, vol: e.vol, reg: r}
	e.handles[h.id] = struct{}{}
	return h
}

// Release drops h's reference. The connection is closed when the last
// reference goes away; the close error, if any, is returned. Releasing a
// handle twice, or one that did not come from r, returns ErrUnknownHandle.
func (r *Registry) Release(h *Handle) error {
	if h == nil || h.reg != r {
		r.metrics.released("unknown")
		return ErrUnknownHandle
	}

	r.mu.Lock()
	e, ok := r.entries[h.key]
	if ok {
		_, ok = e.handles[h.id]
	}
	if !ok {
		r.mu.Unlock()
		r.metrics.released("unknown")
		return ErrUnknownHandle
	}

	delete(e.handles, h.id)
	refs := e.refs()
	if refs > 0 {
		r.updateGauges()
		r.mu.Unlock()
		r.metrics.released("decref")
		logger.Debug("Released shared connection",
			logger.KeyVolume, h.key.Volume, logger.KeyMountPath, h.key.MountPath,
			logger.KeyRefs, refs, logger.KeyHandle, h.id.String())
		return nil
	}

	// Last reference: the entry leaves the table before the connection is
	// closed, so a concurrent Acquire of the same key connects afresh
	// instead of being handed a closing volume.
	delete(r.entries, h.key)
	r.updateGauges()
	r.mu.Unlock()

	r.metrics.released("teardown")
	if err := e.vol.Close(); err != nil {
		logger.Warn("Connection close failed",
			logger.KeyVolume, h.key.Volume, logger.KeyMountPath, h.key.MountPath, logger.Err(err))
		return fmt.Errorf("close %s: %w", h.key, err)
	}
	logger.Info("Connection closed",
		logger.KeyVolume, h.key.Volume, logger.KeyMountPath, h.key.MountPath)
	return nil
}

// Lookup returns the live volume for a key without taking a reference.
func (r *Registry) Lookup(vol, mountPath string) (volume.Volume, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[Key{Volume: vol, MountPath: mountPath}]
	if !ok {
		return nil, false
	}
	return e.vol, true
}

// List returns a snapshot of the table ordered by volume then mount path.
func (r *Registry) List() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, Entry{
			Volume:    e.key.Volume,
			MountPath: e.key.MountPath,
			Backend:   e.cfg.Backend,
			Server:    e.cfg.Server,
			Refs:      e.refs(),
			CreatedAt: e.created,
		})
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Or(cmp.Compare(a.Volume, b.Volume), cmp.Compare(a.MountPath, b.MountPath))
	})
	return out
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Refs returns the number of outstanding handles for a key.
func (r *Registry) Refs(vol, mountPath string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[Key{Volume: vol, MountPath: mountPath}]; ok {
		return e.refs()
	}
	return 0
}

// Close tears down every remaining connection regardless of outstanding
// handles and rejects further acquisitions. Handles still held afterwards
// are unknown to the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	entries := r.entries
	r.entries = make(map[Key]*entry)
	r.updateGauges()
	r.mu.Unlock()

	var errs []error
	for key, e := range entries {
		if e.refs() > 0 {
			logger.Warn("Closing connection with outstanding handles",
				logger.KeyVolume, key.Volume, logger.KeyMountPath, key.MountPath,
				logger.KeyRefs, e.refs())
		}
		if err := e.vol.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// updateGauges must be called with r.mu held.
func (r *Registry) updateGauges() {
	if r.metrics == nil {
		return
	}
	refs := 0
	for _, e := range r.entries {
		refs += e.refs()
	}
	r.metrics.set(len(r.entries), refs)
}

func withVolume(cfg volume.ConnectConfig, vol string) volume.ConnectConfig {
	if cfg.Volume == "" {
		cfg.Volume = vol
	}
	return cfg.WithDefaults()
}
