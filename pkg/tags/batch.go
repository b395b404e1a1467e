package tags

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/tastewalk/internal/retry"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/typed"
)

const (
	// DefaultAttempts is the per-artist budget of the batch collector.
	DefaultAttempts = 50
	// DefaultDelay is waited between two attempts of the batch collector.
	DefaultDelay = 5 * time.Second
)

// BatchCollector gathers tags for long lists of artists, retrying each
// artist with a fixed delay and skipping it once its budget is spent.
// Results of every list are accumulated and saved once at the end.
type BatchCollector struct {
	source   TagProvider
	store    *typed.DocumentStore
	limit    int
	attempts int
	delay    time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// BatchOption configures a BatchCollector.
type BatchOption func(*BatchCollector)

// WithAttempts sets how many times an artist is tried.
func WithAttempts(n int) BatchOption {
	return func(c *BatchCollector) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithDelay sets the wait between two attempts.
func WithDelay(d time.Duration) BatchOption {
	return func(c *BatchCollector) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithBatchLimit sets the number of tags requested per artist.
func WithBatchLimit(n int) BatchOption {
	return func(c *BatchCollector) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithBatchLogger sets the logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(c *BatchCollector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBatchClock overrides time.Now, used for the snapshot stamp.
func WithBatchClock(now func() time.Time) BatchOption {
	return func(c *BatchCollector) { c.now = now }
}

// NewBatchCollector creates a collector persisting to store.
func NewBatchCollector(source TagProvider, store *typed.DocumentStore, opts ...BatchOption) *BatchCollector {
	c := &BatchCollector{
		source:   source,
		store:    store,
		limit:    DefaultLimit,
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BatchReport tells what a collection produced.
type BatchReport struct {
	Handle  core.Handle
	Artists int
	Skipped []core.Artist
}

// Collect gathers tags for every artist of every list and saves the batch.
// Cancellation stops early; what was collected is still saved.
func (c *BatchCollector) Collect(ctx context.Context, lists ...[]core.Artist) (core.Batch, BatchReport, error) {
	var batch core.Batch
	report := BatchReport{Handle: c.store.NewHandle(c.now())}

	i := 0
	for _, list := range lists {
		for _, artist := range list {
			if ctx.Err() != nil {
				break
			}
			report.Artists++

			tags, err := c.fetch(ctx, i, artist)
			i++
			if err != nil {
				if ctx.Err() != nil {
					break
				}
				c.logger.Warn("skipping artist", "index", i-1, "artist", artist.Name, "error", err)
				report.Skipped = append(report.Skipped, artist)
				continue
			}
			batch.Documents = append(batch.Documents, core.TagDocument{Artist: artist, Tags: tags})
			batch.TagCounts = append(batch.TagCounts, len(tags))
			c.logger.Debug("collected", "index", i-1, "artist", artist.Name, "tags", len(tags))
		}
	}

	if err := c.store.Save(context.WithoutCancel(ctx), report.Handle, batch); err != nil {
		return batch, report, fmt.Errorf("failed to save batch %s: %w", report.Handle, err)
	}
	c.logger.Info("batch collected", "snapshot", report.Handle.Name(),
		"documents", len(batch.Documents), "skipped", len(report.Skipped))
	return batch, report, nil
}

func (c *BatchCollector) fetch(ctx context.Context, index int, artist core.Artist) ([]core.Tag, error) {
	var tags []core.Tag
	policy := retry.Policy{
		Attempts: c.attempts,
		Delay:    c.delay,
		OnRetry: func(attempt int, err error) {
			c.logger.Warn("tag fetch failed, waiting", "index", index, "artist", artist.Name,
				"attempt", attempt, "delay", c.delay, "error", err)
		},
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		tags, err = c.source.TopTags(ctx, artist, c.limit)
		return err
	})
	return tags, err
}
