package retrier

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("connection reset")

func fast(opts ...Option) *Retrier {
	return New(append([]Option{WithInitialInterval(time.Millisecond), WithJitter(0)}, opts...)...)
}

func TestRetrier_Do(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		attempts := 0
		err := New().Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("success after retries", func(t *testing.T) {
		attempts := 0
		err := fast(WithMaxRetries(3)).Do(context.Background(), func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return errFlaky
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("fail after max retries", func(t *testing.T) {
		attempts := 0
		err := fast(WithMaxRetries(2)).Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return errFlaky
		})
		assert.ErrorIs(t, err, errFlaky)
		assert.Equal(t, 3, attempts)
	})

	t.Run("permanent error stops immediately", func(t *testing.T) {
		attempts := 0
		err := fast(WithMaxRetries(5)).Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return Permanent(errFlaky)
		})
		assert.Equal(t, errFlaky, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retryIf filters errors", func(t *testing.T) {
		errBadKey := errors.New("invalid key")
		attempts := 0
		r := fast(WithMaxRetries(5), WithRetryIf(func(err error) bool {
			return !errors.Is(err, errBadKey)
		}))
		err := r.Do(context.Background(), func(ctx context.Context) error {
			attempts++
			return errBadKey
		})
		assert.ErrorIs(t, err, errBadKey)
		assert.Equal(t, 1, attempts)
	})

	t.Run("onRetry sees every retry", func(t *testing.T) {
		var seen []int
		r := fast(WithMaxRetries(2), WithOnRetry(func(attempt int, err error) {
			seen = append(seen, attempt)
		}))
		_ = r.Do(context.Background(), func(ctx context.Context) error {
			return errFlaky
		})
		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("context cancellation", func(t *testing.T) {
		r := New(WithMaxRetries(5), WithInitialInterval(100*time.Millisecond))
		ctx, cancel := context.WithCancel(context.Background())

		attempts := 0
		err := r.Do(ctx, func(ctx context.Context) error {
			attempts++
			if attempts == 2 {
				cancel()
			}
			return errFlaky
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 2, attempts)
	})
}

func TestRetrier_DoWithData(t *testing.T) {
	t.Run("success returns data", func(t *testing.T) {
		val, err := DoWithData(New(), context.Background(), func(ctx context.Context) (string, error) {
			return "42.5", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "42.5", val)
	})

	t.Run("fail returns error", func(t *testing.T) {
		val, err := DoWithData(fast(WithMaxRetries(1)), context.Background(), func(ctx context.Context) (string, error) {
			return "", errFlaky
		})
		assert.Error(t, err)
		assert.Empty(t, val)
	})
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
