// Package badger keeps extended attributes in an embedded BadgerDB.
//
// Keys are laid out as "xattr/<namespace>/<path>\x00<name>" so a prefix scan
// over "<path>\x00" lists exactly one file's attributes.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/marmos91/volbridge/pkg/metrics"
	"github.com/marmos91/volbridge/pkg/volume"
)

// Config configures the badger store.
type Config struct {
	// Path is the database directory.
	Path string `mapstructure:"path"`

	// Namespace separates volumes sharing one database.
	Namespace string `mapstructure:"namespace"`

	// InMemory runs badger without touching disk; Path is ignored.
	InMemory bool `mapstructure:"in_memory"`
}

// Store is a badger-backed xattr store.
type Store struct {
	db     *badgerdb.DB
	prefix []byte
	log    *slog.Logger

	unregister func()
}

// Open opens (or creates) the database described by cfg.
func Open(cfg Config, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	var opts badgerdb.Options
	if cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("badger xattr store: path is required")
		}
		opts = badgerdb.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLoggingLevel(badgerdb.WARNING)
	opts = opts.WithCompression(options.None)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	log.Debug("badger xattr store opened", "path", cfg.Path, "namespace", cfg.Namespace)
	return &Store{
		db:         db,
		prefix:     []byte("xattr/" + cfg.Namespace + "/"),
		log:        log,
		unregister: metrics.RegisterBadgerCache(cfg.Namespace, db),
	}, nil
}

func (s *Store) fileKey(p string) []byte {
	k := make([]byte, 0, len(s.prefix)+len(p)+1)
	k = append(k, s.prefix...)
	k = append(k, volume.CleanPath(p)...)
	return append(k, 0)
}

func (s *Store) key(p, name string) []byte {
	return append(s.fileKey(p), name...)
}

// Get implements xattrstore.Store.
func (s *Store) Get(_ context.Context, p, name string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(s.key(p, name))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	if err != nil {
		return nil, fmt.Errorf("badger get: %w", err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// Set implements xattrstore.Store.
func (s *Store) Set(_ context.Context, p, name string, value []byte) error {
	if name == "" {
		return fmt.Errorf("empty xattr name: %w", volume.ErrInvalidArgument)
	}
	v := append([]byte{}, value...)
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(s.key(p, name), v)
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

// Remove implements xattrstore.Store.
func (s *Store) Remove(_ context.Context, p, name string) error {
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		k := s.key(p, name)
		if _, err := txn.Get(k); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return fmt.Errorf("%s %s: %w", p, name, volume.ErrNoData)
	}
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

// List implements xattrstore.Store. Badger iterates keys in byte order, so
// names come back sorted.
func (s *Store) List(_ context.Context, p string) ([]string, error) {
	prefix := s.fileKey(p)
	names := []string{}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list: %w", err)
	}
	return names, nil
}

// Close implements xattrstore.Store.
func (s *Store) Close() error {
	s.unregister()
	return s.db.Close()
}
