// Package postgres keeps extended attributes in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marmos91/volbridge/pkg/volume"
)

// Store is a pgx-backed xattr store.
type Store struct {
	pool *pgxpool.Pool
	ns   string
	log  *slog.Logger
}

// Open connects to PostgreSQL and, unless disabled, migrates the schema.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if *cfg.AutoMigrate {
		if err := RunMigrations(ctx, cfg.ConnectionString(), log); err != nil {
			return nil, err
		}
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	log.Info("postgres xattr store connected",
		"host", cfg.Host,
		"database", cfg.Database,
		"namespace", cfg.Namespace,
	)
	return &Store{pool: pool, ns: cfg.Namespace, log: log}, nil
}

// Get implements xattrstore.Store.
func (s *Store) Get(ctx context.Context, p, name string) ([]byte, error) {
	var v []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM xattrs WHERE namespace = $1 AND path = $2 AND name = $3`,
		s.ns, volume.CleanPath(p), name,
	).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get: %w", err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, nil
}

// Set implements xattrstore.Store.
func (s *Store) Set(ctx context.Context, p, name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("empty xattr name: %w", volume.ErrInvalidArgument)
	}
	if value == nil {
		value = []byte{}
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO xattrs (namespace, path, name, value)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (namespace, path, name)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		s.ns, volume.CleanPath(p), name, value,
	)
	if err != nil {
		return fmt.Errorf("postgres set: %w", err)
	}
	return nil
}

// Remove implements xattrstore.Store.
func (s *Store) Remove(ctx context.Context, p, name string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM xattrs WHERE namespace = $1 AND path = $2 AND name = $3`,
		s.ns, volume.CleanPath(p), name,
	)
	if err != nil {
		return fmt.Errorf("postgres delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	return nil
}

// List implements xattrstore.Store.
func (s *Store) List(ctx context.Context, p string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name FROM xattrs WHERE namespace = $1 AND path = $2 ORDER BY name`,
		s.ns, volume.CleanPath(p),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres list: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Healthcheck pings the pool.
func (s *Store) Healthcheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements xattrstore.Store.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
