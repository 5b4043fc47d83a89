package retry

import (
	"context"
	"math/rand"
	"time"
)

// Default tuning applied by normalization when a Policy field is left zero.
// The wait curve starts short to ride out blips and caps out quickly so a
// longer outage is polled at a steady rate.
const (
	DefaultInitialInterval = 500 * time.Millisecond
	DefaultMaxInterval     = 20 * time.Second
	DefaultMultiplier      = 2.0
	DefaultMaxElapsedTime  = time.Minute
)

// Policy describes how a failing operation is retried. The zero value is
// usable: it retries every transient error with exponential backoff
// (500ms doubling up to 20s) until one minute has elapsed.
//
// A Policy value is immutable from the caller's perspective and safe to
// share between goroutines.
type Policy struct {
	// MaxAttempts stops retrying after this many invocations of the
	// operation. Zero means no attempt limit.
	MaxAttempts int

	// MaxElapsedTime stops retrying once this much time has passed since
	// the first invocation. Zero means no time limit, unless MaxAttempts
	// is also zero, in which case DefaultMaxElapsedTime applies so a
	// zero-value Policy cannot retry forever.
	MaxElapsedTime time.Duration

	// InitialInterval is the wait before the second attempt.
	InitialInterval time.Duration

	// MaxInterval caps the growth of the wait interval.
	MaxInterval time.Duration

	// Multiplier scales the wait interval after each failed attempt.
	// Values below 1 are replaced with DefaultMultiplier.
	Multiplier float64

	// Jitter randomizes each wait within [interval/2, interval] to avoid
	// synchronized reconnect storms across instances.
	Jitter bool

	// Transient reports whether an error is worth retrying. A nil
	// predicate treats every error as transient. Non-transient errors
	// are returned to the caller immediately, without consuming retry
	// budget.
	Transient func(error) bool

	// OnRetry is invoked after each failed attempt that will be retried,
	// with the 1-based attempt number and the error, before the backoff
	// wait. It is never invoked for the final failure.
	OnRetry func(attempt int, err error)
}

func (p Policy) normalized() Policy {
	if p.InitialInterval <= 0 {
		p.InitialInterval = DefaultInitialInterval
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = DefaultMaxInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultMultiplier
	}
	if p.MaxAttempts <= 0 && p.MaxElapsedTime <= 0 {
		p.MaxElapsedTime = DefaultMaxElapsedTime
	}
	return p
}

// Do runs op under the policy. It returns nil as soon as op succeeds, the
// last operation error once a stop condition is reached, op's error
// unchanged when it is classified as non-transient, or the context error
// if the context is canceled during a backoff wait.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue runs op under the policy and returns its result. Retry semantics
// match Do.
func DoValue[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	p = p.normalized()

	var zero T
	start := time.Now()
	interval := p.InitialInterval

	for attempt := 1; ; attempt++ {
		out, err := op(ctx)
		if err == nil {
			return out, nil
		}
		if p.Transient != nil && !p.Transient(err) {
			return zero, err
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return zero, err
		}
		if p.MaxElapsedTime > 0 && time.Since(start) >= p.MaxElapsedTime {
			return zero, err
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		wait := interval
		if p.Jitter && interval > 1 {
			half := interval / 2
			wait = half + time.Duration(rand.Int63n(int64(half)+1))
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		interval = min(time.Duration(float64(interval)*p.Multiplier), p.MaxInterval)
	}
}
