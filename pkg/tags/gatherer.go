// Package tags enriches walks with the top tags of every visited artist.
//
// The Gatherer is fail-stop: the first source failure persists what was
// gathered and ends the run, and the next run resumes where it stopped.
// The BatchCollector is fail-retry: every artist gets a fixed attempt budget
// before it is skipped.
package tags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/typed"
)

// DefaultLimit is the number of top tags requested per artist.
const DefaultLimit = 100

// TagProvider returns the ordered top tags of an artist, at most limit.
type TagProvider interface {
	TopTags(ctx context.Context, a core.Artist, limit int) ([]core.Tag, error)
}

// TagFunc adapts a function to TagProvider.
type TagFunc func(ctx context.Context, a core.Artist, limit int) ([]core.Tag, error)

func (f TagFunc) TopTags(ctx context.Context, a core.Artist, limit int) ([]core.Tag, error) {
	return f(ctx, a, limit)
}

// Recorder observes gathered documents.
type Recorder interface {
	RecordGathered(doc core.TagDocument)
}

// Gatherer fetches tags for the artists of a walk and persists them as a
// tag snapshot sharing the walk's stamp.
type Gatherer struct {
	source   TagProvider
	store    *typed.TagStore
	limit    int
	autosave bool
	show     bool
	recorder Recorder
	logger   *slog.Logger

	mu       sync.RWMutex
	target   core.Handle
	total    int
	done     int
	gathered int
	failed   *core.Artist
}

// Option configures a Gatherer.
type Option func(*Gatherer)

// WithLimit sets the number of tags requested per artist.
func WithLimit(n int) Option {
	return func(g *Gatherer) {
		if n > 0 {
			g.limit = n
		}
	}
}

// WithAutosave toggles the snapshot after every gathered artist. When
// disabled the collection is only saved when Gather returns.
func WithAutosave(enabled bool) Option {
	return func(g *Gatherer) { g.autosave = enabled }
}

// WithShow logs every gathered artist with its first tags.
func WithShow(enabled bool) Option {
	return func(g *Gatherer) { g.show = enabled }
}

// WithRecorder observes every gathered document.
func WithRecorder(r Recorder) Option {
	return func(g *Gatherer) { g.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gatherer) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGatherer creates a gatherer persisting to store.
func NewGatherer(source TagProvider, store *typed.TagStore, opts ...Option) *Gatherer {
	g := &Gatherer{
		source:   source,
		store:    store,
		limit:    DefaultLimit,
		autosave: true,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GatherReport tells how far a gathering run went.
type GatherReport struct {
	// Target is the tag snapshot written.
	Target core.Handle
	// Total is the length of the walk.
	Total int
	// Resumed is the number of documents found before the run.
	Resumed int
	// Gathered is the number of documents fetched by the run.
	Gathered int
	// Done is the number of documents persisted, Resumed + Gathered.
	Done int
	// Failed is the artist whose fetch stopped the run, if any.
	Failed *core.Artist
}

// Remaining is the number of walk artists still without tags.
func (r GatherReport) Remaining() int {
	if r.Total < r.Done {
		return 0
	}
	return r.Total - r.Done
}

// Target picks the tag snapshot the way walks are picked: the newest one
// by name, or a new one sharing the stamp of the walk snapshot h.
func (g *Gatherer) Target(ctx context.Context, h core.Handle) (core.Handle, error) {
	latest, ok, err := g.store.Latest(ctx)
	if err != nil {
		return core.Handle{}, fmt.Errorf("failed to find the latest tag data: %w", err)
	}
	if ok {
		return latest, nil
	}
	return h.WithKind(g.store.Kind()), nil
}

// Gather fetches tags for the artists of walk that have none yet, resuming
// after the documents of the newest tag snapshot. The collection is
// assumed to be a prefix of the walk; a mismatch is logged, not corrected.
//
// Cancellation is a clean stop. A source failure saves the progress and is
// returned along with the report naming the failed artist.
func (g *Gatherer) Gather(ctx context.Context, walkHandle core.Handle, walk core.Walk) (GatherReport, error) {
	report := GatherReport{Total: len(walk)}
	target, err := g.Target(ctx, walkHandle)
	if err != nil {
		return report, err
	}
	report.Target = target

	collection, err := g.store.Load(ctx, target)
	switch {
	case err == nil:
		g.logger.Info("tag data loaded", "snapshot", target.Name(), "documents", len(collection))
		if n := len(collection); n > 0 && g.show {
			g.logShow("last gathered", collection[n-1])
		}
	case errors.Is(err, core.ErrSnapshotNotFound):
		collection = core.TagCollection{}
	default:
		return report, fmt.Errorf("failed to load tag data %s: %w", target, err)
	}

	report.Resumed = len(collection)
	report.Done = len(collection)
	g.begin(target, len(walk), len(collection))
	g.checkPrefix(collection, walk)

	if len(collection) >= len(walk) {
		if len(collection) > len(walk) {
			g.logger.Warn("tag data is longer than the walk", "snapshot", target.Name(),
				"documents", len(collection), "walk", len(walk))
		}
		return report, nil
	}
	g.logger.Info("gathering tags", "snapshot", target.Name(), "left", len(walk)-len(collection))

	var runErr error
	for _, artist := range walk[len(collection):] {
		if ctx.Err() != nil {
			break
		}

		tags, err := g.source.TopTags(ctx, artist, g.limit)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			failed := artist
			report.Failed = &failed
			g.fail(artist)
			runErr = fmt.Errorf("failed to gather tags of %q (%d/%d): %w", artist.Name, len(collection)+1, len(walk), err)
			break
		}

		doc := core.TagDocument{Artist: artist, Tags: tags}
		collection = append(collection, doc)
		report.Gathered++
		report.Done = len(collection)
		g.advance()

		if g.autosave {
			if err := g.store.Save(ctx, target, collection); err != nil {
				runErr = err
				break
			}
		}
		if g.recorder != nil {
			g.recorder.RecordGathered(doc)
		}
		if g.show {
			g.logShow("gathered", doc)
		}
	}

	if report.Gathered > 0 {
		if err := g.store.Save(context.WithoutCancel(ctx), target, collection); err != nil && runErr == nil {
			runErr = fmt.Errorf("failed to save tag data %s: %w", target, err)
		}
	}

	if runErr != nil {
		g.logger.Error("gathering stopped", "gathered", report.Gathered, "done", report.Done,
			"total", report.Total, "error", runErr)
		return report, runErr
	}
	if n := len(collection); n > 0 {
		last := collection[n-1]
		g.logger.Info("gathering stopped", "gathered", report.Gathered, "done", report.Done,
			"total", report.Total, "last", last.Artist.Name, "tags", last.Head(3))
	}
	return report, nil
}

func (g *Gatherer) checkPrefix(collection core.TagCollection, walk core.Walk) {
	for i, doc := range collection {
		if i >= len(walk) {
			return
		}
		if !doc.Artist.Same(walk[i]) {
			g.logger.Warn("tag data does not follow the walk, documents may be misaligned",
				"index", i, "tagged", doc.Artist.Name, "walked", walk[i].Name)
			return
		}
	}
}

func (g *Gatherer) logShow(msg string, doc core.TagDocument) {
	g.logger.Info(msg, "artist", doc.Artist.Name, "tags", doc.Head(3))
}

func (g *Gatherer) begin(target core.Handle, total, done int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.target = target
	g.total = total
	g.done = done
	g.failed = nil
}

func (g *Gatherer) advance() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.done++
	g.gathered++
}

func (g *Gatherer) fail(a core.Artist) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = &a
}
