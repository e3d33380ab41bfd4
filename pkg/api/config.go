package api

import "time"

// Config configures the admin HTTP server.
type Config struct {
	// Port is the HTTP listen port.
	// Default: 8080
	Port int

	// Default: 10s
	ReadTimeout time.Duration

	// Default: 10s
	WriteTimeout time.Duration

	// Default: 60s
	IdleTimeout time.Duration
}

// applyDefaults fills in zero values. Config loading applies the same
// defaults; servers built directly in tests rely on these.
func (c *Config) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}
