// Package kv stores snapshots in an embedded BadgerDB.
//
// Keys are snap:<kind>:<stamp>. Badger iterates keys in byte order, so the
// last key under a kind prefix is the latest snapshot, as with file names.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/aretw0/tastewalk/pkg/core"
)

const keyPrefix = "snap:"

// Config holds the configuration for the Badger repository.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

// Repository implements core.SnapshotRepository on BadgerDB.
type Repository struct {
	config Config
	db     *badger.DB

	mu       sync.RWMutex
	writes   int
	watchers int
}

// NewRepository creates a repository. The database is opened by Initialize.
func NewRepository(config Config) *Repository {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Repository{config: config}
}

// Initialize opens the database.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.db != nil {
		return nil
	}
	opts := badger.DefaultOptions(r.config.Path)
	if r.config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger: %w", err)
	}
	r.db = db
	return nil
}

func key(h core.Handle) []byte {
	return []byte(keyPrefix + h.Kind + ":" + h.Stamp)
}

func kindPrefix(kind string) []byte {
	return []byte(keyPrefix + kind + ":")
}

func (r *Repository) open() error {
	if r.db == nil {
		return errors.New("badger repository is not initialized")
	}
	return nil
}

// List returns the snapshots of kind in key order.
func (r *Repository) List(ctx context.Context, kind string) ([]core.Handle, error) {
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}
	if err := r.open(); err != nil {
		return nil, err
	}

	var handles []core.Handle
	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := kindPrefix(kind)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			stamp := string(it.Item().Key()[len(prefix):])
			h := core.Handle{Kind: kind, Stamp: stamp}
			if err := h.Validate(); err != nil {
				r.config.Logger.Warn("ignoring malformed key", "key", string(it.Item().Key()))
				continue
			}
			handles = append(handles, h)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s snapshots: %w", kind, err)
	}
	return handles, nil
}

// Latest returns the last key of kind.
func (r *Repository) Latest(ctx context.Context, kind string) (core.Handle, bool, error) {
	hs, err := r.List(ctx, kind)
	if err != nil {
		return core.Handle{}, false, err
	}
	h, ok := core.LatestOf(hs)
	return h, ok, nil
}

// Read returns the payload of h.
func (r *Repository) Read(ctx context.Context, h core.Handle) ([]byte, error) {
	if err := r.open(); err != nil {
		return nil, err
	}
	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(h))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, h)
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", h, err)
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}

// Write replaces the payload of h in a single transaction.
func (r *Repository) Write(ctx context.Context, h core.Handle, data []byte) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(h), data)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", h, err)
	}

	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	return nil
}

// Duplicate copies h under the first free stamp at or after at.
func (r *Repository) Duplicate(ctx context.Context, h core.Handle, at time.Time) (core.Handle, error) {
	data, err := r.Read(ctx, h)
	if err != nil {
		return core.Handle{}, err
	}
	nh, err := core.FreeHandle(h.Kind, at, r.exists)
	if err != nil {
		return core.Handle{}, err
	}
	if err := r.Write(ctx, nh, data); err != nil {
		return core.Handle{}, err
	}
	return nh, nil
}

func (r *Repository) exists(h core.Handle) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(h))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Close closes the database.
func (r *Repository) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

var _ core.SnapshotRepository = (*Repository)(nil)
