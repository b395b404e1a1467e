package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/tastewalk/internal/metrics"
	"github.com/aretw0/tastewalk/pkg/adapters/fs"
	"github.com/aretw0/tastewalk/pkg/adapters/lastfm"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/tags"
	"github.com/aretw0/tastewalk/pkg/typed"
	"github.com/aretw0/tastewalk/pkg/walk"
)

// ErrMissingAPIKey is returned when a component needs Last.fm and no key is configured.
var ErrMissingAPIKey = errors.New("lastfm.api_key is not set (TASTEWALK_LASTFM__API_KEY)")

// App wires the repository, the typed stores and the similarity source
// described by a Config.
type App struct {
	Config     *Config
	Logger     *slog.Logger
	Repository core.SnapshotRepository
	Walks      *typed.WalkStore
	Tags       *typed.TagStore
	Documents  *typed.DocumentStore
	Metrics    *metrics.Metrics

	source lastfm.API
	engine []walk.EngineOption
}

// New opens the repository and builds the stores.
// The Last.fm client is only required by NewWalker, NewGatherer and NewBatchCollector.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	repo := o.repository
	if repo == nil {
		var err error
		if repo, err = OpenRepository(ctx, cfg, logger); err != nil {
			return nil, err
		}
	} else if err := repo.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize repository: %w", err)
	}

	app := &App{
		Config:     cfg,
		Logger:     logger,
		Repository: repo,
		Metrics:    metrics.New(),
		engine:     o.engine,
	}
	if err := app.openStores(); err != nil {
		_ = repo.Close()
		return nil, err
	}

	switch {
	case o.source != nil:
		app.source = o.source
	case cfg.LastFM.APIKey != "":
		app.source = app.newSource()
	}
	return app, nil
}

func (a *App) openStores() error {
	codec, err := fs.CodecFor(a.Config.Format)
	if err != nil {
		return err
	}
	if a.Walks, err = typed.NewStore[core.Walk](a.Repository, codec, a.Config.Kind); err != nil {
		return err
	}
	if a.Tags, err = typed.NewStore[core.TagCollection](a.Repository, codec, core.KindTags); err != nil {
		return err
	}
	a.Documents, err = typed.NewStore[core.Batch](a.Repository, codec, core.KindDocument)
	return err
}

func (a *App) newSource() lastfm.API {
	lc := a.Config.LastFM
	client := lastfm.NewClient(lastfm.Config{
		APIKey:     lc.APIKey,
		BaseURL:    lc.BaseURL,
		Timeout:    lc.Timeout,
		RateLimit:  lc.RateLimit,
		Burst:      lc.Burst,
		MaxRetries: lc.MaxRetries,
		Logger:     a.Logger.With("component", "lastfm"),
	})
	return lastfm.NewBreakerClient(client, lastfm.BreakerConfig{
		ConsecutiveFailures: lc.BreakerFailures,
		Timeout:             lc.BreakerTimeout,
		Observer:            a.Metrics,
		Logger:              a.Logger.With("component", "breaker"),
	})
}

// Source returns the similarity source or ErrMissingAPIKey.
func (a *App) Source() (lastfm.API, error) {
	if a.source == nil {
		return nil, ErrMissingAPIKey
	}
	return a.source, nil
}

// NewWalker builds a walker from the walk settings. opts are applied last.
func (a *App) NewWalker(opts ...walk.Option) (*walk.Walker, error) {
	src, err := a.Source()
	if err != nil {
		return nil, err
	}
	wc := a.Config.Walk

	engineOpts := []walk.EngineOption{
		walk.WithMaxDegree(wc.MaxDegree),
		walk.WithEngineLogger(a.Logger.With("component", "engine")),
	}
	if wc.MaxFallback > 0 {
		engineOpts = append(engineOpts, walk.WithMaxFallback(wc.MaxFallback))
	}
	engine := walk.NewEngine(src, append(engineOpts, a.engine...)...)

	base := []walk.Option{
		walk.WithSeedResolver(lastfm.SeedResolver(src, a.Config.Seed)),
		walk.WithBackProb(wc.BackProb),
		walk.WithAutosave(wc.Autosave),
		walk.WithRecorder(a.Metrics),
		walk.WithLogger(a.Logger.With("component", "walker")),
	}
	if wc.RetryAttempts > 0 {
		base = append(base, walk.WithRetry(wc.RetryAttempts, wc.RetryDelay))
	}
	return walk.NewWalker(engine, a.Walks, append(base, opts...)...), nil
}

// NewGatherer builds a tag gatherer from the tag settings. opts are applied last.
func (a *App) NewGatherer(opts ...tags.Option) (*tags.Gatherer, error) {
	src, err := a.Source()
	if err != nil {
		return nil, err
	}
	tc := a.Config.Tags
	base := []tags.Option{
		tags.WithLimit(tc.Limit),
		tags.WithAutosave(tc.Autosave),
		tags.WithShow(tc.Show),
		tags.WithRecorder(a.Metrics),
		tags.WithLogger(a.Logger.With("component", "gatherer")),
	}
	return tags.NewGatherer(src, a.Tags, append(base, opts...)...), nil
}

// NewBatchCollector builds a batch collector from the tag settings. opts are applied last.
func (a *App) NewBatchCollector(opts ...tags.BatchOption) (*tags.BatchCollector, error) {
	src, err := a.Source()
	if err != nil {
		return nil, err
	}
	tc := a.Config.Tags
	base := []tags.BatchOption{
		tags.WithAttempts(tc.Attempts),
		tags.WithDelay(tc.Delay),
		tags.WithBatchLimit(tc.Limit),
		tags.WithBatchLogger(a.Logger.With("component", "collector")),
	}
	return tags.NewBatchCollector(src, a.Documents, append(base, opts...)...), nil
}

// Close exports the metrics when a textfile is configured and closes the repository.
func (a *App) Close() error {
	var errs []error
	if path := a.Config.Metrics.File; path != "" {
		if err := a.Metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}
	if err := a.Repository.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
