// Package server runs a volbridge instance: it connects the configured
// shares through one handle registry and serves the admin and metrics
// endpoints until its context is cancelled.
//
// Lifecycle:
//  1. New builds the registry and the share set from a Config
//  2. Run connects the shares, starts the HTTP servers and optionally
//     follows config file changes
//  3. Cancelling the context disconnects every share and closes the
//     registry within the configured shutdown timeout
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/volbridge/internal/logger"
	"github.com/marmos91/volbridge/pkg/api"
	"github.com/marmos91/volbridge/pkg/config"
	"github.com/marmos91/volbridge/pkg/metrics"
	"github.com/marmos91/volbridge/pkg/registry"
	"github.com/marmos91/volbridge/pkg/vfs"
	"github.com/marmos91/volbridge/pkg/volume"
	"github.com/marmos91/volbridge/pkg/volume/backends"
)

// ErrNoShares is returned by Run when none of the configured shares could
// be connected.
var ErrNoShares = errors.New("server: no share connected")

// runner is an HTTP component with a blocking Start.
type runner interface {
	Start(ctx context.Context) error
	Port() int
}

// Server is one running bridge.
type Server struct {
	mu  sync.Mutex
	cfg *config.Config

	configPath string
	watch      bool
	connector  volume.Connector

	reg     *registry.Registry
	shares  *vfs.Shares
	runners []namedRunner
}

type namedRunner struct {
	name string
	runner
}

// Option configures a Server.
type Option func(*Server)

// WithConnector replaces the backend dispatcher, mainly for tests.
func WithConnector(c volume.Connector) Option {
	return func(s *Server) { s.connector = c }
}

// WithWatch reloads the share list whenever the file at path changes.
func WithWatch(path string) Option {
	return func(s *Server) {
		s.configPath = path
		s.watch = true
	}
}

// New builds a server for cfg. When cfg enables metrics the global
// Prometheus registry is initialized first so every component records
// into it.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}
	set := metrics.NewSet()

	s := &Server{cfg: cfg, connector: backends.Connector()}
	for _, opt := range opts {
		opt(s)
	}
	s.reg = registry.New(s.connector, registry.WithMetrics(set.Registry))
	s.shares = vfs.NewShares(s.reg, vfs.WithACLMetrics(set.ACL))

	if cfg.API.Enabled {
		s.runners = append(s.runners, namedRunner{"api", api.NewServer(api.Config{
			Port:         cfg.API.Port,
			ReadTimeout:  cfg.API.ReadTimeout,
			WriteTimeout: cfg.API.WriteTimeout,
			IdleTimeout:  cfg.API.IdleTimeout,
		}, s.reg, s.shares)})
	}
	if cfg.Metrics.Enabled {
		s.runners = append(s.runners, namedRunner{"metrics", metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})})
	}
	return s
}

// Registry returns the server's handle registry.
func (s *Server) Registry() *registry.Registry { return s.reg }

// Shares returns the server's share set.
func (s *Server) Shares() *vfs.Shares { return s.shares }

// Run connects the configured shares and blocks until ctx is cancelled or
// an HTTP component fails. Shares that fail to connect are logged; Run only
// gives up when none connects.
func (s *Server) Run(ctx context.Context) error {
	if err := s.sync(ctx, s.cfg); err != nil {
		_ = s.reg.Close()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range s.runners {
		g.Go(func() error {
			if err := r.Start(gctx); err != nil {
				return fmt.Errorf("%s server: %w", r.name, err)
			}
			return nil
		})
		logger.Info("HTTP server enabled", "component", r.name, "port", r.Port())
	}
	if s.watch {
		g.Go(func() error {
			return config.Watch(gctx, s.configPath, func(next *config.Config) {
				s.reload(gctx, next)
			})
		})
	}

	logger.Info("Server is running", "shares", s.shares.Len(), "connections", s.reg.Len())
	<-gctx.Done()
	err := g.Wait()

	s.mu.Lock()
	timeout := s.cfg.ShutdownTimeout
	s.mu.Unlock()
	if shutdownErr := s.shutdown(timeout); shutdownErr != nil {
		err = errors.Join(err, shutdownErr)
	}
	return err
}

func (s *Server) sync(ctx context.Context, cfg *config.Config) error {
	res := s.shares.Sync(ctx, cfg.ShareConfigs())
	for _, name := range res.Connected {
		logger.InfoCtx(ctx, "Share ready", logger.KeyShare, name)
	}
	for _, name := range res.Disconnected {
		logger.InfoCtx(ctx, "Share removed", logger.KeyShare, name)
	}
	for name, err := range res.Failed {
		logger.ErrorCtx(ctx, "Share failed", logger.KeyShare, name, logger.Err(err))
	}
	if s.shares.Len() == 0 {
		return ErrNoShares
	}
	return nil
}

// reload applies a changed configuration. Only the share list and the log
// level take effect without a restart.
func (s *Server) reload(ctx context.Context, next *config.Config) {
	s.mu.Lock()
	s.cfg.Shares = next.Shares
	s.cfg.Logging = next.Logging
	s.cfg.ShutdownTimeout = next.ShutdownTimeout
	s.mu.Unlock()

	logger.SetLevel(next.Logging.Level)
	if err := s.sync(ctx, next); err != nil {
		logger.WarnCtx(ctx, "Configuration reload left no share connected", logger.Err(err))
	}
}

// shutdown disconnects every share and closes the registry, giving up
// after timeout.
func (s *Server) shutdown(timeout time.Duration) error {
	logger.Info("Shutting down", "timeout", timeout.String())
	done := make(chan error, 1)
	go func() {
		done <- errors.Join(s.shares.Close(), s.reg.Close())
	}()

	select {
	case err := <-done:
		if err == nil {
			logger.Info("Server stopped gracefully")
		}
		return err
	case <-time.After(timeout):
		return fmt.Errorf("shutdown did not finish within %s", timeout)
	}
}
