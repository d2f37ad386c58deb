package generate

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// TransportError wraps a failed call to an external generation service.
type TransportError struct {
	Service string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Options bound the retry loop shared by every backend.
type Options struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// InitialBackoff is the delay before the second attempt; later delays grow exponentially.
	InitialBackoff time.Duration
}

func (o Options) attempts() uint {
	if o.MaxAttempts < 1 {
		return 1
	}
	return uint(o.MaxAttempts)
}

func (o Options) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = o.InitialBackoff
	if b.InitialInterval <= 0 {
		b.InitialInterval = time.Millisecond
	}
	b.MaxInterval = 30 * time.Second
	return b
}

// permanent marks err as not worth retrying.
func permanent(err error) error {
	return backoff.Permanent(err)
}

// retry runs op until it succeeds, returns a permanent error, or the attempt
// budget is spent. Nothing is retried once ctx is done; a per-call timeout
// inside op is retried like any transport failure.
func retry[T any](ctx context.Context, opts Options, notify func(error, time.Duration), op func() (T, error)) (T, error) {
	wrapped := func() (T, error) {
		v, err := op()
		if err != nil && ctx.Err() != nil {
			return v, backoff.Permanent(err)
		}
		return v, err
	}
	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(opts.backOff()),
		backoff.WithMaxTries(opts.attempts()),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
}
