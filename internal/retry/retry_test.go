package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/tastewalk/internal/retry"
)

var errFlaky = errors.New("flaky")

func TestDo(t *testing.T) {
	t.Run("Succeeds After Failures", func(t *testing.T) {
		calls := 0
		var retried []int
		err := retry.Do(context.Background(), retry.Policy{
			Attempts: 5,
			Delay:    time.Millisecond,
			OnRetry:  func(attempt int, err error) { retried = append(retried, attempt) },
		}, func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errFlaky
			}
			return nil
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retried)
	})

	t.Run("Gives Up After Budget", func(t *testing.T) {
		calls := 0
		err := retry.Do(context.Background(), retry.Policy{Attempts: 4, Delay: time.Millisecond}, func(ctx context.Context) error {
			calls++
			return errFlaky
		})
		assert.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 4, calls)
	})

	t.Run("Non Retryable Stops Immediately", func(t *testing.T) {
		calls := 0
		fatal := errors.New("fatal")
		err := retry.Do(context.Background(), retry.Policy{
			Attempts:  10,
			Retryable: func(err error) bool { return errors.Is(err, errFlaky) },
		}, func(ctx context.Context) error {
			calls++
			return fatal
		})
		assert.ErrorIs(t, err, fatal)
		assert.Equal(t, 1, calls)
	})

	t.Run("Zero Policy Tries Once", func(t *testing.T) {
		calls := 0
		_ = retry.Do(context.Background(), retry.Policy{}, func(ctx context.Context) error {
			calls++
			return errFlaky
		})
		assert.Equal(t, 1, calls)
	})

	t.Run("Cancelled While Waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := retry.Do(ctx, retry.Policy{Attempts: 3, Delay: time.Hour}, func(ctx context.Context) error {
			calls++
			cancel()
			return errFlaky
		})
		assert.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 1, calls)
	})
}
