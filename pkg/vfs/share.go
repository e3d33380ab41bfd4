// Package vfs exposes connected volumes as file server shares.
//
// A Share binds a configured service name to a registry handle. Shares with
// the same volume and path share one connection; each Share holds its own
// reference and gives it back on Disconnect.
package vfs

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/marmos91/volbridge/internal/logger"
	"github.com/marmos91/volbridge/pkg/acl"
	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/volume"
)

// ShareConfig describes one exported share.
type ShareConfig struct {
	// Name is the service name clients connect to.
	Name string

	// Path is the share's connect path. Together with Volume it keys the
	// shared connection.
	Path string

	// Volume defaults to Name.
	Volume string

	// VolfileServer defaults to volume.DefaultServer.
	VolfileServer string

	// Backend selects the volume implementation.
	Backend string

	LogFile string

	// LogLevel uses the storage-client verbosity scale. Nil means
	// volume.DefaultLogLevel.
	LogLevel *int

	// Options are passed to the backend untouched.
	Options map[string]any
}

// mdCacheACL makes the metadata cache keep POSIX ACL xattrs, which every
// ACL read goes through.
var mdCacheACL = volume.XlatorOption{Xlator: "*-md-cache", Key: "cache-posix-acl", Value: "true"}

// ConnectConfig returns the share's connection config with defaults
// resolved. Its Volume and the share Path form the registry key.
func (c ShareConfig) ConnectConfig() volume.ConnectConfig {
	vol := c.Volume
	if vol == "" {
		vol = c.Name
	}
	server := c.VolfileServer
	if server == "" {
		server = volume.DefaultServer
	}
	level := volume.DefaultLogLevel
	if c.LogLevel != nil {
		level = *c.LogLevel
	}
	cfg := volume.ConnectConfig{
		Backend:   c.Backend,
		Server:    server,
		Transport: volume.DefaultTransport,
		Port:      volume.DefaultPort,
		Volume:    vol,
		LogFile:   c.LogFile,
		LogLevel:  level,
		Xlators:   []volume.XlatorOption{mdCacheACL},
		Options:   c.Options,
	}
	return cfg.WithDefaults()
}

// Share is a connected share. It is safe for concurrent use.
type Share struct {
	name    string
	cfg     ShareConfig
	reg     *registry.Registry
	metrics *acl.Metrics

	mu     sync.RWMutex
	handle *registry.Handle
}

// Option configures a Share.
type Option func(*Share)

// WithACLMetrics records codec activity of the share's ACL operations.
func WithACLMetrics(m *acl.Metrics) Option {
	return func(s *Share) { s.metrics = m }
}

// Connect acquires the share's connection from reg.
func Connect(ctx context.Context, reg *registry.Registry, cfg ShareConfig, opts ...Option) (*Share, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("vfs: share name is required: %w", volume.ErrInvalidArgument)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("vfs: share %q has no path: %w", cfg.Name, volume.ErrInvalidArgument)
	}

	cc := cfg.ConnectConfig()
	h, err := reg.Acquire(ctx, cc.Volume, cfg.Path, cc)
	if err != nil {
		return nil, fmt.Errorf("vfs: connect share %q: %w", cfg.Name, err)
	}

	s := &Share{name: cfg.Name, cfg: cfg, reg: reg, handle: h}
	for _, opt := range opts {
		opt(s)
	}

	logger.InfoCtx(ctx, "Share connected",
		logger.KeyShare, cfg.Name,
		logger.KeyVolume, cc.Volume,
		logger.KeyMountPath, cfg.Path,
		logger.KeyServer, cc.Server,
		logger.KeyRefs, reg.Refs(cc.Volume, cfg.Path))
	return s, nil
}

// Name returns the share's service name.
func (s *Share) Name() string { return s.name }

// Config returns the configuration the share was connected with.
func (s *Share) Config() ShareConfig { return s.cfg }

// Key returns the registry key of the share's connection.
func (s *Share) Key() registry.Key {
	return registry.Key{Volume: s.cfg.ConnectConfig().Volume, MountPath: s.cfg.Path}
}

// Connected reports whether Disconnect has not been called yet.
func (s *Share) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handle != nil
}

// Disconnect releases the share's reference. Further calls are no-ops.
func (s *Share) Disconnect() error {
	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.mu.Unlock()

	if h == nil {
		return nil
	}
	if err := s.reg.Release(h); err != nil {
		return fmt.Errorf("vfs: disconnect share %q: %w", s.name, err)
	}
	logger.Info("Share disconnected", logger.KeyShare, s.name, logger.KeyVolume, h.Key().Volume)
	return nil
}

// volume returns the live connection or ErrDisconnected.
func (s *Share) volume() (volume.Volume, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.handle == nil {
		return nil, ErrDisconnected
	}
	return s.handle.Volume(), nil
}

// Shares is the set of connected shares, keyed by name.
type Shares struct {
	reg  *registry.Registry
	opts []Option

	mu     sync.RWMutex
	shares map[string]*Share
}

// NewShares creates an empty share set backed by reg. opts are applied to
// every share it connects.
func NewShares(reg *registry.Registry, opts ...Option) *Shares {
	return &Shares{reg: reg, opts: opts, shares: make(map[string]*Share)}
}

// Connect connects cfg and adds it to the set.
func (ss *Shares) Connect(ctx context.Context, cfg ShareConfig) (*Share, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.shares[cfg.Name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrShareExists, cfg.Name)
	}
	s, err := Connect(ctx, ss.reg, cfg, ss.opts...)
	if err != nil {
		return nil, err
	}
	ss.shares[cfg.Name] = s
	return s, nil
}

// Disconnect disconnects the named share and removes it from the set.
func (ss *Shares) Disconnect(name string) error {
	ss.mu.Lock()
	s, ok := ss.shares[name]
	delete(ss.shares, name)
	ss.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrShareNotFound, name)
	}
	return s.Disconnect()
}

// Get returns the named share.
func (ss *Shares) Get(name string) (*Share, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.shares[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShareNotFound, name)
	}
	return s, nil
}

// List returns the connected shares ordered by name.
func (ss *Shares) List() []*Share {
	ss.mu.RLock()
	out := make([]*Share, 0, len(ss.shares))
	for _, s := range ss.shares {
		out = append(out, s)
	}
	ss.mu.RUnlock()
	slices.SortFunc(out, func(a, b *Share) int { return cmp.Compare(a.name, b.name) })
	return out
}

// Len returns the number of connected shares.
func (ss *Shares) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.shares)
}

// SyncResult reports what Sync changed.
type SyncResult struct {
	Connected    []string
	Disconnected []string
	Failed       map[string]error
}

// Sync makes the set match cfgs: shares missing from cfgs are disconnected,
// new ones are connected and shares whose config changed are reconnected.
// Failures are collected per share; Sync keeps going past them.
func (ss *Shares) Sync(ctx context.Context, cfgs []ShareConfig) SyncResult {
	res := SyncResult{Failed: make(map[string]error)}

	want := make(map[string]ShareConfig, len(cfgs))
	for _, c := range cfgs {
		want[c.Name] = c
	}

	for _, s := range ss.List() {
		c, keep := want[s.name]
		if keep && shareConfigEqual(c, s.cfg) {
			delete(want, s.name)
			continue
		}
		if err := ss.Disconnect(s.name); err != nil {
			res.Failed[s.name] = err
			continue
		}
		res.Disconnected = append(res.Disconnected, s.name)
	}

	for _, c := range cfgs {
		if _, pending := want[c.Name]; !pending {
			continue
		}
		if _, err := ss.Connect(ctx, c); err != nil {
			res.Failed[c.Name] = err
			continue
		}
		res.Connected = append(res.Connected, c.Name)
	}
	return res
}

// Close disconnects every share.
func (ss *Shares) Close() error {
	var first error
	for _, s := range ss.List() {
		if err := ss.Disconnect(s.name); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func shareConfigEqual(a, b ShareConfig) bool {
	return a.Name == b.Name && a.Path == b.Path && a.ConnectConfig().Equal(b.ConnectConfig())
}
