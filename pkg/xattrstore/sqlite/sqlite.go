// Package sqlite keeps extended attributes in a SQLite database through GORM.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/marmos91/volbridge/pkg/volume"
)

// Config configures the SQLite store.
type Config struct {
	// Path is the database file. ":memory:" keeps it in process.
	Path string `mapstructure:"path"`

	// Namespace separates volumes sharing one database.
	Namespace string `mapstructure:"namespace"`
}

// Xattr is one stored attribute.
type Xattr struct {
	Namespace string `gorm:"primaryKey;size:255"`
	Path      string `gorm:"primaryKey;size:4096"`
	Name      string `gorm:"primaryKey;size:255"`
	Value     []byte
}

// TableName implements gorm's tabler.
func (Xattr) TableName() string { return "xattrs" }

// Store is a GORM-backed xattr store.
type Store struct {
	db *gorm.DB
	ns string
}

// Open opens the database and migrates the schema.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite xattr store: path is required")
	}
	dsn := cfg.Path
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// from being split across pooled connections.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Xattr{}); err != nil {
		return nil, fmt.Errorf("failed to run database migration: %w", err)
	}
	return &Store{db: db, ns: cfg.Namespace}, nil
}

func (s *Store) where(ctx context.Context, p string) *gorm.DB {
	return s.db.WithContext(ctx).Where("namespace = ? AND path = ?", s.ns, volume.CleanPath(p))
}

// Get implements xattrstore.Store.
func (s *Store) Get(ctx context.Context, p, name string) ([]byte, error) {
	var x Xattr
	err := s.where(ctx, p).Where("name = ?", name).Take(&x).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}
	if x.Value == nil {
		x.Value = []byte{}
	}
	return x.Value, nil
}

// Set implements xattrstore.Store.
func (s *Store) Set(ctx context.Context, p, name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("empty xattr name: %w", volume.ErrInvalidArgument)
	}
	x := Xattr{Namespace: s.ns, Path: volume.CleanPath(p), Name: name, Value: append([]byte{}, value...)}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "path"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&x).Error
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Remove implements xattrstore.Store.
func (s *Store) Remove(ctx context.Context, p, name string) error {
	res := s.where(ctx, p).Where("name = ?", name).Delete(&Xattr{})
	if res.Error != nil {
		return fmt.Errorf("sqlite delete: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	return nil
}

// List implements xattrstore.Store.
func (s *Store) List(ctx context.Context, p string) ([]string, error) {
	names := []string{}
	err := s.where(ctx, p).Model(&Xattr{}).Order("name").Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	return names, nil
}

// Close implements xattrstore.Store.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
