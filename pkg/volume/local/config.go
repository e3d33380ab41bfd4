package local

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/marmos91/volbridge/pkg/xattrstore"
	"github.com/marmos91/volbridge/pkg/xattrstore/badger"
	"github.com/marmos91/volbridge/pkg/xattrstore/native"
	"github.com/marmos91/volbridge/pkg/xattrstore/postgres"
	"github.com/marmos91/volbridge/pkg/xattrstore/sqlite"
)

// Config holds local volume options.
type Config struct {
	// Root is the host directory exposed as the volume root.
	Root string `mapstructure:"root"`

	Xattrs XattrConfig `mapstructure:"xattrs"`
}

// XattrConfig selects where extended attributes live.
type XattrConfig struct {
	// Store is one of native, badger, sqlite, postgres. Defaults to native.
	Store xattrstore.Type `mapstructure:"store"`

	// Path is the badger directory or sqlite file. Relative paths are
	// resolved against Root.
	Path string `mapstructure:"path"`

	// Namespace separates volumes sharing a database. Defaults to the
	// volume name.
	Namespace string `mapstructure:"namespace"`

	Postgres postgres.Config `mapstructure:"postgres"`
}

// OpenXattrStore builds the store selected by cfg for a volume rooted at root.
func OpenXattrStore(ctx context.Context, root string, cfg XattrConfig, log *slog.Logger) (xattrstore.Store, error) {
	if cfg.Store == "" {
		cfg.Store = xattrstore.TypeNative
	}
	storePath := cfg.Path
	if storePath != "" && storePath != ":memory:" && !filepath.IsAbs(storePath) {
		storePath = filepath.Join(root, storePath)
	}

	switch cfg.Store {
	case xattrstore.TypeNative:
		return native.New(root)
	case xattrstore.TypeBadger:
		return badger.Open(badger.Config{Path: storePath, Namespace: cfg.Namespace}, log)
	case xattrstore.TypeSQLite:
		return sqlite.Open(sqlite.Config{Path: storePath, Namespace: cfg.Namespace})
	case xattrstore.TypePostgres:
		pc := cfg.Postgres
		if pc.Namespace == "" {
			pc.Namespace = cfg.Namespace
		}
		return postgres.Open(ctx, pc, log)
	default:
		return nil, fmt.Errorf("unknown xattr store %q", cfg.Store)
	}
}
