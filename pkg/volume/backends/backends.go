// Package backends maps backend names to volume connectors.
package backends

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/marmos91/volbridge/pkg/volume"
	"github.com/marmos91/volbridge/pkg/volume/ceph"
	"github.com/marmos91/volbridge/pkg/volume/local"
	"github.com/marmos91/volbridge/pkg/volume/memory"
	"github.com/marmos91/volbridge/pkg/volume/s3"
)

// Backend names.
const (
	Memory = "memory"
	Local  = "local"
	S3     = "s3"
	Ceph   = "ceph"
)

var connectors = map[string]volume.ConnectorFunc{
	Memory: memory.Connect,
	Local:  local.Connect,
	S3:     s3.Connect,
	Ceph:   ceph.Connect,
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(connectors))
}

// Known reports whether name is a registered backend.
func Known(name string) bool {
	_, ok := connectors[name]
	return ok
}

// Connector dispatches on ConnectConfig.Backend.
func Connector() volume.Connector {
	return volume.ConnectorFunc(func(ctx context.Context, cfg volume.ConnectConfig) (volume.Volume, error) {
		fn, ok := connectors[cfg.Backend]
		if !ok {
			return nil, fmt.Errorf("%q: %w", cfg.Backend, volume.ErrUnknownBackend)
		}
		return fn(ctx, cfg)
	})
}
