package platform

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/tastewalk/pkg/adapters/fs"
	"github.com/aretw0/tastewalk/pkg/adapters/kv"
	"github.com/aretw0/tastewalk/pkg/adapters/memory"
	"github.com/aretw0/tastewalk/pkg/adapters/sqlite"
	"github.com/aretw0/tastewalk/pkg/core"
)

const (
	badgerDir  = "badger"
	sqliteFile = "tastewalk.db"
)

// OpenRepository builds the repository selected by cfg.Backend and
// initializes it.
func OpenRepository(ctx context.Context, cfg *Config, logger *slog.Logger) (core.SnapshotRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}

	codec, err := fs.CodecFor(cfg.Format)
	if err != nil {
		return nil, err
	}

	var repo core.SnapshotRepository
	switch cfg.Backend {
	case "fs":
		repo = fs.NewRepository(fs.Config{
			Path:   cfg.DataDir,
			Ext:    codec.Ext(),
			Logger: logger.With("adapter", "fs"),
		})
	case "badger":
		repo = kv.NewRepository(kv.Config{
			Path:   filepath.Join(cfg.DataDir, badgerDir),
			Logger: logger.With("adapter", "badger"),
		})
	case "sqlite":
		repo = sqlite.NewRepository(sqlite.Config{
			Path:   filepath.Join(cfg.DataDir, sqliteFile),
			Logger: logger.With("adapter", "sqlite"),
		})
	case "memory":
		repo = memory.NewRepository()
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}

	if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s repository: %w", cfg.Backend, err)
	}
	return repo, nil
}
