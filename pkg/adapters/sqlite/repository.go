// Package sqlite stores snapshots in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/aretw0/tastewalk/pkg/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	kind       TEXT NOT NULL,
	stamp      TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (kind, stamp)
);`

// Config holds the configuration for the SQLite repository.
type Config struct {
	// Path is the database file. ":memory:" keeps everything in process.
	Path   string
	Logger *slog.Logger
}

// Repository implements core.SnapshotRepository with one row per snapshot.
// Stamps are ordered as text, which keeps the naming-convention ordering.
type Repository struct {
	config Config
	db     *sql.DB

	mu     sync.RWMutex
	writes int
}

// NewRepository creates a repository. The database is opened by Initialize.
func NewRepository(config Config) *Repository {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Repository{config: config}
}

// Initialize opens the database, creating its directory and table.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.db != nil {
		return nil
	}
	if r.config.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(r.config.Path), 0755); err != nil {
			return fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", r.config.Path)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("create schema: %w", err)
	}
	r.db = db
	return nil
}

func (r *Repository) open() error {
	if r.db == nil {
		return errors.New("sqlite repository is not initialized")
	}
	return nil
}

// List returns the snapshots of kind ordered by stamp.
func (r *Repository) List(ctx context.Context, kind string) ([]core.Handle, error) {
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}
	if err := r.open(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT stamp FROM snapshots WHERE kind = ? ORDER BY stamp", kind)
	if err != nil {
		return nil, fmt.Errorf("list %s snapshots: %w", kind, err)
	}
	defer rows.Close()

	var handles []core.Handle
	for rows.Next() {
		var stamp string
		if err := rows.Scan(&stamp); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		h := core.Handle{Kind: kind, Stamp: stamp}
		if err := h.Validate(); err != nil {
			r.config.Logger.Warn("ignoring malformed row", "kind", kind, "stamp", stamp)
			continue
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

// Latest returns the greatest stamp of kind.
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
	err := r.db.QueryRowContext(ctx, "SELECT data FROM snapshots WHERE kind = ? AND stamp = ?", h.Kind, h.Stamp).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, h)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", h, err)
	}
	return data, nil
}

// Write replaces the payload of h.
func (r *Repository) Write(ctx context.Context, h core.Handle, data []byte) error {
	if err := h.Validate(); err != nil {
		return err
	}
	if err := r.open(); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots(kind, stamp, data, updated_at) VALUES(?, ?, ?, ?)
		ON CONFLICT(kind, stamp) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		h.Kind, h.Stamp, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("write %s: %w", h, err)
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
	nh, err := core.FreeHandle(h.Kind, at, func(c core.Handle) (bool, error) {
		var n int
		err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM snapshots WHERE kind = ? AND stamp = ?", c.Kind, c.Stamp).Scan(&n)
		return n > 0, err
	})
	if err != nil {
		return core.Handle{}, err
	}
	if err := r.Write(ctx, nh, data); err != nil {
		return core.Handle{}, err
	}
	return nh, nil
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
