package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marmos91/volbridge/pkg/acl"
	"github.com/marmos91/volbridge/pkg/registry"
)

// Set groups the metrics of the components wired by the server.
//
// Fields are nil when metrics are disabled; every component accepts a nil
// metrics value.
type Set struct {
	Registry *registry.Metrics
	ACL      *acl.Metrics
}

var (
	globalSet     *Set
	globalSetOnce sync.Once
)

// NewSet returns the component metrics of the global registry, creating
// them on first use. It returns an empty Set if InitRegistry has not been
// called.
func NewSet() *Set {
	if !IsEnabled() {
		return &Set{}
	}
	globalSetOnce.Do(func() { globalSet = NewSetWith(GetRegistry()) })
	return globalSet
}

// NewSetWith creates the component metrics on reg.
// Panics if any of them is already registered there.
func NewSetWith(reg prometheus.Registerer) *Set {
	return &Set{
		Registry: registry.NewMetrics(reg),
		ACL:      acl.NewMetrics(reg),
	}
}
