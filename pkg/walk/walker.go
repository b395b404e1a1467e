package walk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/tastewalk/internal/retry"
	"github.com/aretw0/tastewalk/pkg/core"
	"github.com/aretw0/tastewalk/pkg/typed"
)

// DefaultBackProb is the probability of expanding a random past artist.
const DefaultBackProb = 0.1

// Walker owns one walk session: it loads or creates the walk, extends it with
// the Engine and persists a full snapshot after every step.
type Walker struct {
	engine   *Engine
	store    *typed.WalkStore
	confirm  Confirmer
	seed     func(ctx context.Context) (core.Artist, error)
	backProb float64
	autosave bool
	retry    retry.Policy
	recorder Recorder
	events   chan<- Event
	logger   *slog.Logger
	now      func() time.Time
	runID    string

	mu     sync.RWMutex
	walk   core.Walk
	handle core.Handle
	steps  int
}

// ErrDeclined is returned by Load when the user refuses to create a new walk.
var ErrDeclined = errors.New("declined")

// Option configures a Walker.
type Option func(*Walker)

// WithSeed sets the artist that starts a brand-new walk.
func WithSeed(a core.Artist) Option {
	return func(w *Walker) {
		w.seed = func(context.Context) (core.Artist, error) { return a, nil }
	}
}

// WithSeedResolver resolves the seed lazily, only when a new walk is created.
func WithSeedResolver(fn func(ctx context.Context) (core.Artist, error)) Option {
	return func(w *Walker) { w.seed = fn }
}

// WithConfirmer sets who approves the creation of a new walk.
func WithConfirmer(c Confirmer) Option {
	return func(w *Walker) { w.confirm = c }
}

// WithBackProb sets the back move probability.
func WithBackProb(p float64) Option {
	return func(w *Walker) { w.backProb = p }
}

// WithAutosave toggles the snapshot after every step. When disabled the walk
// is only saved when Run returns.
func WithAutosave(enabled bool) Option {
	return func(w *Walker) { w.autosave = enabled }
}

// WithRetry sets the policy applied to source failures during Run.
// Only errors wrapping core.ErrSourceUnavailable are retried.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(w *Walker) {
		w.retry = retry.Policy{
			Attempts:  attempts + 1,
			Delay:     delay,
			Retryable: func(err error) bool { return errors.Is(err, core.ErrSourceUnavailable) },
		}
	}
}

// WithRecorder observes every step.
func WithRecorder(r Recorder) Option {
	return func(w *Walker) { w.recorder = r }
}

// WithEvents publishes progress on ch. Sends block until received or the run
// is cancelled.
func WithEvents(ch chan<- Event) Option {
	return func(w *Walker) { w.events = ch }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock overrides time.Now, used for snapshot stamps.
func WithClock(now func() time.Time) Option {
	return func(w *Walker) { w.now = now }
}

// NewWalker creates a walker persisting to store.
func NewWalker(engine *Engine, store *typed.WalkStore, opts ...Option) *Walker {
	w := &Walker{
		engine:   engine,
		store:    store,
		confirm:  AlwaysConfirm(false),
		backProb: DefaultBackProb,
		autosave: true,
		retry:    retry.Once,
		logger:   slog.Default(),
		now:      time.Now,
		runID:    uuid.NewString(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LoadOptions selects the walk to resume.
type LoadOptions struct {
	// Handle of the snapshot; zero selects the latest one of the store's kind.
	Handle core.Handle
	// Duplicate continues on a timestamped copy, leaving the original intact.
	Duplicate bool
}

// Load resumes a walk, or creates a new one seeded with the seed artist when
// none exists or the snapshot is damaged (after confirmation).
func (w *Walker) Load(ctx context.Context, opts LoadOptions) error {
	h := opts.Handle
	if h.IsZero() {
		latest, ok, err := w.store.Latest(ctx)
		if err != nil {
			return err
		}
		if ok {
			h = latest
		} else {
			h = w.store.NewHandle(w.now())
		}
	}

	walk, err := w.store.Load(ctx, h)
	if err == nil && len(walk) == 0 {
		err = fmt.Errorf("%w: %s holds an empty walk", core.ErrCorruptSnapshot, h)
	}
	switch {
	case err == nil:
	case errors.Is(err, core.ErrSnapshotNotFound):
		w.logger.Info("no walk data found", "snapshot", h.Name())
		return w.create(ctx, h)
	case errors.Is(err, core.ErrCorruptSnapshot):
		w.logger.Warn("the walk data appears to be empty or damaged", "snapshot", h.Name(), "error", err)
		return w.create(ctx, h)
	default:
		return err
	}

	if opts.Duplicate {
		at := w.now()
		// The copy must sort after its source to become the latest walk.
		if core.NewHandle(h.Kind, at).Name() <= h.Name() {
			src, err := h.Time()
			if err != nil {
				return err
			}
			at = src.Add(time.Second)
		}
		dup, err := w.store.Duplicate(ctx, h, at)
		if err != nil {
			return fmt.Errorf("failed to duplicate %s: %w", h, err)
		}
		w.logger.Info("walking on a copy", "from", h.Name(), "to", dup.Name())
		h = dup
	}

	w.set(h, walk)
	w.logger.Info("walk loaded", "snapshot", h.Name(), "length", len(walk))
	return nil
}

func (w *Walker) create(ctx context.Context, h core.Handle) error {
	ok, err := w.confirm.Confirm(ctx, "Do you wish to create a new walk")
	if err != nil {
		if errors.Is(err, core.ErrCancelled) {
			return fmt.Errorf("%w: %w", core.ErrMissingWalkState, err)
		}
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %w: walk creation declined", core.ErrMissingWalkState, ErrDeclined)
	}
	if w.seed == nil {
		return fmt.Errorf("%w: no seed artist configured", core.ErrMissingWalkState)
	}

	seed, err := w.seed(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve seed artist: %w", err)
	}
	walk := core.Walk{seed}
	if err := w.store.Save(ctx, h, walk); err != nil {
		return err
	}
	w.set(h, walk)
	w.logger.Info("new walk created", "snapshot", h.Name(), "seed", seed.Name)
	return nil
}

// RunOptions bounds a run.
type RunOptions struct {
	// MaxSteps stops the run after that many steps. Zero walks until cancelled.
	MaxSteps int
}

// RunReport tells how far a run went.
type RunReport struct {
	Handle core.Handle
	Steps  int
	Length int
}

// Run extends the walk until ctx is cancelled, MaxSteps is reached, or an
// error occurs. The walk is saved before returning in every case, so at most
// the in-flight step is lost. Cancellation is a clean stop and returns a nil error.
func (w *Walker) Run(ctx context.Context, opts RunOptions) (RunReport, error) {
	w.mu.RLock()
	loaded := w.walk != nil
	w.mu.RUnlock()
	if !loaded {
		return RunReport{}, fmt.Errorf("%w: load or create a walk before walking", core.ErrMissingWalkState)
	}

	logger := w.logger.With("run_id", w.runID)
	report := RunReport{Handle: w.Handle()}
	if w.autosave {
		logger.Debug("autosave is active")
	}

	var runErr error
	for opts.MaxSteps == 0 || report.Steps < opts.MaxSteps {
		if ctx.Err() != nil {
			break
		}

		out, err := w.next(ctx, logger)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			runErr = err
			break
		}

		length := w.append(out.Artist)
		report.Steps++
		out.Length = length

		if w.autosave {
			if err := w.Save(ctx); err != nil {
				runErr = err
				break
			}
		}
		if w.recorder != nil {
			w.recorder.RecordStep(out)
		}
		w.emit(ctx, Event{Index: length - 1, Outcome: out, Handle: report.Handle})
	}

	// Final flush, even when ctx is already cancelled.
	if err := w.Save(context.WithoutCancel(ctx)); err != nil && runErr == nil {
		runErr = err
	}
	report.Length = w.Len()

	if runErr != nil {
		logger.Error("walk stopped", "steps", report.Steps, "length", report.Length, "error", runErr)
		return report, runErr
	}
	logger.Info("walk stopped", "steps", report.Steps, "length", report.Length)
	return report, nil
}

func (w *Walker) next(ctx context.Context, logger *slog.Logger) (Outcome, error) {
	snapshot := w.Walk()
	var out Outcome
	policy := w.retry
	policy.OnRetry = func(attempt int, err error) {
		logger.Warn("source unavailable, retrying", "attempt", attempt, "delay", policy.Delay, "error", err)
	}
	err := retry.Do(ctx, policy, func(ctx context.Context) error {
		var err error
		out, err = w.engine.Next(ctx, snapshot, w.backProb)
		return err
	})
	return out, err
}

func (w *Walker) emit(ctx context.Context, e Event) {
	if w.events == nil {
		return
	}
	select {
	case w.events <- e:
	case <-ctx.Done():
	}
}

// Save writes the current walk as a full snapshot.
func (w *Walker) Save(ctx context.Context) error {
	w.mu.RLock()
	h, walk := w.handle, w.walk.Clone()
	w.mu.RUnlock()
	if walk == nil {
		return core.ErrMissingWalkState
	}
	if err := w.store.Save(ctx, h, walk); err != nil {
		return fmt.Errorf("failed to save walk %s: %w", h, err)
	}
	return nil
}

// Walk returns a copy of the current walk.
func (w *Walker) Walk() core.Walk {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.walk.Clone()
}

// Len returns the current walk length.
func (w *Walker) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.walk)
}

// Handle returns the snapshot the walk is persisted to.
func (w *Walker) Handle() core.Handle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.handle
}

func (w *Walker) set(h core.Handle, walk core.Walk) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handle = h
	w.walk = walk
}

func (w *Walker) append(a core.Artist) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.walk = append(w.walk, a)
	w.steps++
	return len(w.walk)
}
