// Package walk implements a weighted random walk over an implicit similarity
// graph whose neighborhoods are fetched lazily from a remote source.
package walk

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/aretw0/tastewalk/pkg/core"
)

// DefaultMaxDegree is the neighbor cap requested from the source. The service
// refuses to return more than a fixed number of similar artists.
const DefaultMaxDegree = 100

// NeighborProvider returns the ordered neighbors of an artist, at most limit.
// Answers may change between calls; they are never cached.
type NeighborProvider interface {
	Neighbors(ctx context.Context, a core.Artist, limit int) ([]core.Artist, error)
}

// NeighborFunc adapts a function to NeighborProvider.
type NeighborFunc func(ctx context.Context, a core.Artist, limit int) ([]core.Artist, error)

func (f NeighborFunc) Neighbors(ctx context.Context, a core.Artist, limit int) ([]core.Artist, error) {
	return f(ctx, a, limit)
}

// Engine chooses the next artist of a walk.
type Engine struct {
	source      NeighborProvider
	maxDegree   int
	maxFallback int
	rng         *rand.Rand
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMaxDegree sets the neighbor cap requested from the source.
func WithMaxDegree(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxDegree = n
		}
	}
}

// WithMaxFallback bounds how many history positions behind the tail are tried
// when neighborhoods come back empty. Zero walks back through the whole history.
func WithMaxFallback(n int) EngineOption {
	return func(e *Engine) {
		if n >= 0 {
			e.maxFallback = n
		}
	}
}

// WithRand sets the random source, mostly for reproducible tests.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *Engine) {
		if r != nil {
			e.rng = r
		}
	}
}

// WithEngineLogger sets the logger of the engine.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine drawing neighbors from source.
func NewEngine(source NeighborProvider, opts ...EngineOption) *Engine {
	e := &Engine{
		source:    source,
		maxDegree: DefaultMaxDegree,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDegree returns the neighbor cap of the engine.
func (e *Engine) MaxDegree() int { return e.maxDegree }

// Step returns the next artist of the walk. The caller appends it.
func (e *Engine) Step(ctx context.Context, w core.Walk, backProb float64) (core.Artist, error) {
	out, err := e.Next(ctx, w, backProb)
	if err != nil {
		return core.Artist{}, err
	}
	return out.Artist, nil
}

// Next performs one step and describes how the next artist was chosen.
//
// With probability backProb the base is drawn uniformly from the whole history,
// otherwise it is the tail. When the base has no neighbors the base moves one
// position further back from the tail, up to the fallback limit. Source errors
// are returned as is; retrying is the caller's business.
func (e *Engine) Next(ctx context.Context, w core.Walk, backProb float64) (Outcome, error) {
	if len(w) == 0 {
		return Outcome{}, core.ErrMissingWalkState
	}
	if backProb < 0 || backProb > 1 {
		return Outcome{}, fmt.Errorf("back probability %v is outside [0, 1]", backProb)
	}

	out := Outcome{Move: MoveAdvance}
	base := w[len(w)-1]
	if e.rng.Float64() < backProb {
		base = w[e.rng.IntN(len(w))]
		out.Move = MoveBack
	}

	limit := e.fallbackLimit(len(w))
	for offset := 1; ; {
		e.logger.Debug("expanding", "artist", base.Name, "offset", offset)

		candidates, err := e.source.Neighbors(ctx, base, e.maxDegree)
		if err != nil {
			return out, fmt.Errorf("neighbors of %q: %w", base.Name, err)
		}
		if len(candidates) > e.maxDegree {
			candidates = candidates[:e.maxDegree]
		}
		out.Base = base
		out.Candidates = len(candidates)

		if len(candidates) > 0 {
			out.Artist, out.Choice = e.choose(base, candidates)
			return out, nil
		}

		offset++
		if offset > limit {
			return out, fmt.Errorf("%w: no neighbors found within the last %d artists of a walk of %d",
				core.ErrEmptyNeighborhood, limit, len(w))
		}
		out.Fallbacks++
		base = w[len(w)-offset]
	}
}

// fallbackLimit is the deepest offset from the tail that may serve as base.
func (e *Engine) fallbackLimit(history int) int {
	if e.maxFallback == 0 || e.maxFallback+1 > history {
		return history
	}
	return e.maxFallback + 1
}

// choose draws among non-empty candidates.
//
// A full neighborhood means the cap truncated it, so the draw is uniform.
// Otherwise each candidate weighs 1/maxDegree and staying at the base weighs
// the remainder 1 - k/maxDegree: sparse neighborhoods self-loop more often.
func (e *Engine) choose(base core.Artist, candidates []core.Artist) (core.Artist, Choice) {
	k := len(candidates)
	if k == e.maxDegree {
		return candidates[e.rng.IntN(k)], ChoiceUniform
	}

	cumulative := make([]float64, k+1)
	each := 1 / float64(e.maxDegree)
	for i := 0; i < k; i++ {
		cumulative[i] = float64(i+1) * each
	}
	cumulative[k] = cumulative[k-1] + (1 - float64(k)/float64(e.maxDegree))

	u := e.rng.Float64() * cumulative[k]
	i := sort.Search(len(cumulative), func(i int) bool { return cumulative[i] > u })
	if i >= k {
		return base, ChoiceStay
	}
	return candidates[i], ChoiceWeighted
}
