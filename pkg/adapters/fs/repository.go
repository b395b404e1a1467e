package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/tastewalk/pkg/core"
)

// Repository implements core.SnapshotRepository with one file per snapshot in
// a flat data directory, named <kind><YY-MM-DD--HH-MM-SS><ext>.
//
// Exactly one writer per snapshot file is assumed; no locking is performed.
type Repository struct {
	Path   string
	config Config

	mu            sync.RWMutex
	watchers      int
	writes        int
	lastWrite     *time.Time
	lastWriteName string
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	Ext       string      // Snapshot file extension, e.g. ".json". Defaults to ".json".
	Perm      os.FileMode // Defaults to 0644.
	MustExist bool        // Fail on Initialize instead of creating the directory.
	Logger    *slog.Logger
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.Ext == "" {
		config.Ext = ".json"
	}
	if config.Perm == 0 {
		config.Perm = 0644
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Repository{
		Path:   config.Path,
		config: config,
	}
}

// Initialize creates the data directory unless MustExist is set.
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data directory does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", r.Path)
		}
		return nil
	}
	if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Filename returns the path of the snapshot file for h.
func (r *Repository) Filename(h core.Handle) string {
	return filepath.Join(r.Path, h.Name()+r.config.Ext)
}

// List returns the snapshots of kind found in the data directory, sorted by name.
func (r *Repository) List(ctx context.Context, kind string) ([]core.Handle, error) {
	if err := core.ValidateKind(kind); err != nil {
		return nil, err
	}

	if _, err := os.Stat(r.Path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	names, err := doublestar.Glob(os.DirFS(r.Path), kind+"*"+r.config.Ext, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to list %s snapshots: %w", kind, err)
	}

	handles := make([]core.Handle, 0, len(names))
	for _, name := range names {
		h, err := core.ParseName(name)
		if err != nil || h.Kind != kind {
			// e.g. "tag" matching "tag_data..." or stray files
			continue
		}
		handles = append(handles, h)
	}
	core.SortHandles(handles)
	return handles, nil
}

// Latest returns the lexicographically last snapshot of kind.
func (r *Repository) Latest(ctx context.Context, kind string) (core.Handle, bool, error) {
	handles, err := r.List(ctx, kind)
	if err != nil {
		return core.Handle{}, false, err
	}
	h, ok := core.LatestOf(handles)
	return h, ok, nil
}

// Read returns the content of the snapshot file.
func (r *Repository) Read(ctx context.Context, h core.Handle) ([]byte, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(r.Filename(h))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", core.ErrSnapshotNotFound, r.Filename(h))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.Filename(h), err)
	}
	return data, nil
}

// Write overwrites the snapshot file atomically.
func (r *Repository) Write(ctx context.Context, h core.Handle, data []byte) error {
	if err := h.Validate(); err != nil {
		return err
	}
	filename := r.Filename(h)
	if err := writeFileAtomic(filename, data, r.config.Perm); err != nil {
		return err
	}
	r.recordWrite(h)
	r.config.Logger.Debug("snapshot written", "file", filename, "bytes", len(data))
	return nil
}

// Duplicate copies the snapshot under a fresh timestamped name.
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
	r.config.Logger.Info("snapshot duplicated", "from", h.Name(), "to", nh.Name())
	return nh, nil
}

// Close is a no-op for the filesystem.
func (r *Repository) Close() error {
	return nil
}

func (r *Repository) exists(h core.Handle) (bool, error) {
	_, err := os.Stat(r.Filename(h))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (r *Repository) recordWrite(h core.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.writes++
	r.lastWrite = &now
	r.lastWriteName = h.Name()
}

var _ core.SnapshotRepository = (*Repository)(nil)
