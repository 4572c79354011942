// Package retry retries operations that fail with transient errors, with a linear backoff.
package retry

import (
	"context"
	"time"

	"github.com/tari-project/tari-sub016/errors"
	"github.com/tari-project/tari-sub016/ulogger"
)

type options struct {
	retryCount          int
	backoffMultiplier   int
	backoffDurationType time.Duration
	message             string
	retryIf             func(error) bool
}

type Option func(*options)

// WithRetryCount sets the total number of attempts. Values below 1 mean a single attempt.
func WithRetryCount(n int) Option {
	return func(o *options) {
		o.retryCount = n
	}
}

func WithBackoffMultiplier(n int) Option {
	return func(o *options) {
		o.backoffMultiplier = n
	}
}

func WithBackoffDurationType(d time.Duration) Option {
	return func(o *options) {
		o.backoffDurationType = d
	}
}

func WithMessage(msg string) Option {
	return func(o *options) {
		o.message = msg
	}
}

// WithRetryIf limits retries to errors accepted by fn. Other errors are returned straight away.
func WithRetryIf(fn func(error) bool) Option {
	return func(o *options) {
		o.retryIf = fn
	}
}

// Retry calls f until it succeeds, the attempts are used up, or ctx is done. The last error is returned.
func Retry[T any](ctx context.Context, logger ulogger.Logger, f func() (T, error), opts ...Option) (T, error) {
	o := &options{
		retryCount:          3,
		backoffMultiplier:   2,
		backoffDurationType: time.Second,
		message:             "retrying",
		retryIf:             func(error) bool { return true },
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.retryCount < 1 {
		o.retryCount = 1
	}

	var (
		result T
		err    error
	)

	for i := 0; i < o.retryCount; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, errors.NewContextCanceledError("%s: canceled after %d attempt(s)", o.message, i, ctxErr)
		}

		if result, err = f(); err == nil {
			return result, nil
		}

		if !o.retryIf(err) || i == o.retryCount-1 {
			break
		}

		logger.Warnf("[Retry] %s (attempt %d of %d): %v", o.message, i+1, o.retryCount, err)

		if sleepErr := BackoffAndSleep(ctx, i, o.backoffMultiplier, o.backoffDurationType); sleepErr != nil {
			return result, errors.NewContextCanceledError("%s: canceled while backing off", o.message, sleepErr)
		}
	}

	return result, err
}
