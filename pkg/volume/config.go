package volume

import (
	"context"
	"maps"
	"reflect"
)

// Connection defaults.
const (
	DefaultServer    = "localhost"
	DefaultTransport = "tcp"
	DefaultPort      = 0
	DefaultLogLevel  = -1
)

// XlatorOption is a storage-client translator setting applied at connect
// time, e.g. {"*-md-cache", "cache-posix-acl", "true"}.
type XlatorOption struct {
	Xlator string `json:"xlator" yaml:"xlator"`
	Key    string `json:"key" yaml:"key"`
	Value  string `json:"value" yaml:"value"`
}

// ConnectConfig describes how to establish a connection.
type ConnectConfig struct {
	// Backend selects the Connector implementation: memory, local, s3, ceph.
	Backend string

	// Server is the volfile/coordinator server address.
	Server    string
	Transport string
	Port      int

	// Volume is the storage-side volume name.
	Volume string

	// LogFile and LogLevel configure the connection's own log sink.
	// LogLevel uses the storage-client scale where -1 means default.
	LogFile  string
	LogLevel int

	// Xlators are translator options applied before the connection is
	// initialized.
	Xlators []XlatorOption

	// Options carries backend-specific settings, decoded by the backend.
	Options map[string]any
}

// WithDefaults returns a copy of c with empty fields filled in.
func (c ConnectConfig) WithDefaults() ConnectConfig {
	if c.Server == "" {
		c.Server = DefaultServer
	}
	if c.Transport == "" {
		c.Transport = DefaultTransport
	}
	c.Xlators = append([]XlatorOption(nil), c.Xlators...)
	c.Options = maps.Clone(c.Options)
	return c
}

// Equal reports whether two configs describe the same connection once
// defaults are applied.
func (c ConnectConfig) Equal(o ConnectConfig) bool {
	return reflect.DeepEqual(c.WithDefaults(), o.WithDefaults())
}

// Connector establishes a connection. It must release everything it
// allocated before returning an error.
type Connector interface {
	Connect(ctx context.Context, cfg ConnectConfig) (Volume, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, cfg ConnectConfig) (Volume, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, cfg ConnectConfig) (Volume, error) {
	return f(ctx, cfg)
}
