//go:build !ceph

package ceph

import (
	"context"
	"fmt"

	"github.com/marmos91/volbridge/pkg/volume"
)

// Connect fails: this binary was built without CephFS support.
func Connect(_ context.Context, cc volume.ConnectConfig) (volume.Volume, error) {
	var cfg Config
	if err := volume.DecodeOptions(cc.Options, &cfg); err != nil {
		return nil, fmt.Errorf("invalid ceph volume options: %w", err)
	}
	return nil, fmt.Errorf("ceph backend requires a build with -tags ceph: %w", volume.ErrNotSupported)
}
