package postgres

import (
	"fmt"
	"net/url"
	"time"
)

// Config configures the PostgreSQL store.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`

	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`

	// Namespace separates volumes sharing one database.
	Namespace string `mapstructure:"namespace"`

	// AutoMigrate applies pending schema migrations on Open.
	AutoMigrate *bool `mapstructure:"auto_migrate"`
}

// ApplyDefaults fills in unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = time.Hour
	}
	if c.AutoMigrate == nil {
		t := true
		c.AutoMigrate = &t
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("postgres host is required")
	case c.Database == "":
		return fmt.Errorf("postgres database is required")
	case c.User == "":
		return fmt.Errorf("postgres user is required")
	case c.MinConns > c.MaxConns:
		return fmt.Errorf("postgres min_conns (%d) exceeds max_conns (%d)", c.MinConns, c.MaxConns)
	}
	return nil
}

// ConnectionString returns a postgres:// URL for c.
func (c *Config) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
