package platform

import (
	"log/slog"

	"github.com/aretw0/tastewalk/pkg/adapters/lastfm"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/walk"
)

// options holds what New wires instead of building it from Config.
type options struct {
	repository core.SnapshotRepository
	source     lastfm.API
	logger     *slog.Logger
	engine     []walk.EngineOption
}

// Option defines a functional option for configuring the App.
type Option func(*options)

func defaultOptions() *options {
	return &options{}
}

// WithLogger sets the logger for every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository injects a storage adapter, skipping Config.Backend.
// The repository is initialized by New and closed by App.Close.
func WithRepository(repo core.SnapshotRepository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithSource injects the similarity source, skipping the Last.fm client
// and its circuit breaker.
func WithSource(api lastfm.API) Option {
	return func(o *options) {
		o.source = api
	}
}

// WithEngineOptions appends options to the engine built by NewWalker,
// e.g. walk.WithRand for reproducible walks.
func WithEngineOptions(opts ...walk.EngineOption) Option {
	return func(o *options) {
		o.engine = append(o.engine, opts...)
	}
}
