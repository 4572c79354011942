package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/ulogger"
)

func noSleep(t *testing.T) *[]time.Duration {
	var slept []time.Duration

	original := sleepFunc
	sleepFunc = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}

	t.Cleanup(func() {
		sleepFunc = original
	})

	return &slept
}

func TestRetry(t *testing.T) {
	ctx := context.Background()
	logger := ulogger.TestLogger{}

	t.Run("first attempt", func(t *testing.T) {
		slept := noSleep(t)

		v, err := Retry(ctx, logger, func() (string, error) { return "ok", nil })
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Empty(t, *slept)
	})

	t.Run("succeeds after failures", func(t *testing.T) {
		slept := noSleep(t)
		calls := 0

		v, err := Retry(ctx, logger, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.NewStorageUnavailableError("not yet")
			}

			return calls, nil
		}, WithRetryCount(5), WithBackoffMultiplier(2), WithBackoffDurationType(time.Millisecond))

		require.NoError(t, err)
		assert.Equal(t, 3, v)
		assert.Equal(t, []time.Duration{time.Millisecond, 3 * time.Millisecond}, *slept)
	})

	t.Run("gives up", func(t *testing.T) {
		noSleep(t)
		calls := 0

		_, err := Retry(ctx, logger, func() (int, error) {
			calls++
			return 0, errors.NewStorageUnavailableError("down")
		}, WithRetryCount(3))

		require.ErrorIs(t, err, errors.ErrStorageUnavailable)
		assert.Equal(t, 3, calls)
	})

	t.Run("non retryable error", func(t *testing.T) {
		noSleep(t)
		calls := 0

		_, err := Retry(ctx, logger, func() (int, error) {
			calls++
			return 0, errors.NewConfigurationError("bad url")
		}, WithRetryCount(3), WithRetryIf(errors.IsStorageError))

		require.ErrorIs(t, err, errors.ErrConfiguration)
		assert.Equal(t, 1, calls)
	})

	t.Run("canceled", func(t *testing.T) {
		noSleep(t)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := Retry(cctx, logger, func() (int, error) { return 1, nil })
		require.ErrorIs(t, err, errors.ErrContextCanceled)
	})
}

func TestBackoffAndSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := BackoffAndSleep(ctx, 10, 10, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}
