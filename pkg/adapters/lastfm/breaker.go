package lastfm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/aretw0/tastewalk/pkg/core"
)

// API is the part of the service used by walks and gatherers.
type API interface {
	Neighbors(ctx context.Context, a core.Artist, limit int) ([]core.Artist, error)
	TopTags(ctx context.Context, a core.Artist, limit int) ([]core.Tag, error)
	SearchArtist(ctx context.Context, name string, limit int) ([]core.Artist, error)
}

// Request outcomes reported to an Observer.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// Observer receives request outcomes and breaker transitions.
type Observer interface {
	RequestCompleted(method, result string)
	BreakerStateChanged(name, state string)
}

// BreakerConfig tunes the circuit breaker.
type BreakerConfig struct {
	Name string
	// ConsecutiveFailures opens the circuit. Defaults to 5.
	ConsecutiveFailures uint32
	// Timeout is the open period before a trial request. Defaults to 30s.
	Timeout time.Duration
	// MaxRequests is the number of trial requests when half-open. Defaults to 1.
	MaxRequests uint32
	Observer    Observer
	Logger      *slog.Logger
}

// BreakerClient guards an API with a circuit breaker. Unknown artists and
// cancelled requests do not count as failures. Rejections while the circuit
// is open are reported as core.ErrSourceUnavailable.
type BreakerClient struct {
	api      API
	cb       *gobreaker.CircuitBreaker[any]
	name     string
	observer Observer
	logger   *slog.Logger
}

// NewBreakerClient wraps api.
func NewBreakerClient(api API, cfg BreakerConfig) *BreakerClient {
	if cfg.Name == "" {
		cfg.Name = "lastfm-api"
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	b := &BreakerClient{api: api, name: cfg.Name, observer: cfg.Observer, logger: cfg.Logger}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Minute,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			if trip {
				b.logger.Warn("opening circuit", "breaker", cfg.Name, "failures", counts.ConsecutiveFailures)
			}
			return trip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.logger.Info("circuit breaker state transition", "breaker", name, "from", from.String(), "to", to.String())
			if b.observer != nil {
				b.observer.BreakerStateChanged(name, to.String())
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsNotFound(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})
	if b.observer != nil {
		b.observer.BreakerStateChanged(cfg.Name, gobreaker.StateClosed.String())
	}
	return b
}

// State returns the current breaker state.
func (b *BreakerClient) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerClient) execute(method string, fn func() (any, error)) (any, error) {
	result, err := b.cb.Execute(fn)

	outcome := ResultOK
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = ResultRejected
		b.logger.Warn("request rejected by circuit breaker", "breaker", b.name, "method", method)
		err = fmt.Errorf("%w: %s: %v", core.ErrSourceUnavailable, method, err)
	case IsNotFound(err):
		outcome = ResultNotFound
	case err != nil:
		outcome = ResultError
	}
	if b.observer != nil {
		b.observer.RequestCompleted(method, outcome)
	}
	return result, err
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// Neighbors calls the wrapped API with circuit breaker protection.
func (b *BreakerClient) Neighbors(ctx context.Context, a core.Artist, limit int) ([]core.Artist, error) {
	return castResult[[]core.Artist](b.execute("artist.getSimilar", func() (any, error) {
		return b.api.Neighbors(ctx, a, limit)
	}))
}

// TopTags calls the wrapped API with circuit breaker protection.
func (b *BreakerClient) TopTags(ctx context.Context, a core.Artist, limit int) ([]core.Tag, error) {
	return castResult[[]core.Tag](b.execute("artist.getTopTags", func() (any, error) {
		return b.api.TopTags(ctx, a, limit)
	}))
}

// SearchArtist calls the wrapped API with circuit breaker protection.
func (b *BreakerClient) SearchArtist(ctx context.Context, name string, limit int) ([]core.Artist, error) {
	return castResult[[]core.Artist](b.execute("artist.search", func() (any, error) {
		return b.api.SearchArtist(ctx, name, limit)
	}))
}

var _ API = (*Client)(nil)
var _ API = (*BreakerClient)(nil)
