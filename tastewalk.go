package tastewalk

import (
	"context"
	"log/slog"

	"github.com/aretw0/tastewalk/internal/platform"
	"github.com/aretw0/tastewalk/pkg/adapters/lastfm"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/walk"
)

// --- Types ---

// App is the wired application: repository, stores and similarity source.
type App = platform.App

// Config is the whole configuration.
type Config = platform.Config

// Artist is a node of the similarity graph.
type Artist = core.Artist

// Walk is the ordered sequence of visited artists.
type Walk = core.Walk

// Handle names one stored snapshot.
type Handle = core.Handle

// --- Configuration ---

// Option defines a functional option for Open.
type Option = platform.Option

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return platform.DefaultConfig()
}

// LoadConfig reads defaults, the YAML file, TASTEWALK_* variables and
// overrides, in increasing priority.
func LoadConfig(path string, overrides map[string]any) (*Config, error) {
	return platform.LoadConfig(path, overrides)
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository injects a storage adapter instead of Config.Backend.
func WithRepository(repo core.SnapshotRepository) Option {
	return platform.WithRepository(repo)
}

// WithSource injects the similarity source instead of the Last.fm client.
func WithSource(api lastfm.API) Option {
	return platform.WithSource(api)
}

// WithEngineOptions tunes the walk engine, e.g. with a seeded random source.
func WithEngineOptions(opts ...walk.EngineOption) Option {
	return platform.WithEngineOptions(opts...)
}

// --- Factory ---

// Open wires an App for cfg. A nil cfg uses DefaultConfig.
func Open(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	return platform.New(ctx, cfg, opts...)
}
