// Package poll implements the wait primitive used for every asynchronous
// operation: Hetzner actions, Talos API readiness, Kubernetes API
// reachability, node readiness and CNI rollout.
//
// A check is invoked synchronously; between unsuccessful checks the caller
// sleeps for the interval. The check reports one of three outcomes: the
// condition is met (with a value), not met yet, or failed. A failure ends
// polling immediately. Progress is logged once at start and once on success.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/imamik/oxide/internal/metrics"
)

// Check evaluates a condition. It returns met=true with a value when the
// condition holds, met=false to keep waiting, or a non-nil error to abort.
type Check[T any] func(ctx context.Context) (value T, met bool, err error)

// TimeoutError is returned when the condition was not met within the timeout.
type TimeoutError struct {
	Desc    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Timeout, e.Desc)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Logf is the logging function used for start/success messages.
type Logf func(format string, args ...any)

type options struct {
	logf Logf
}

// Option configures a single poll.
type Option func(*options)

// WithLogger routes progress messages to logf.
func WithLogger(logf Logf) Option {
	return func(o *options) {
		o.logf = logf
	}
}

// WithQuiet disables progress messages.
func WithQuiet() Option {
	return func(o *options) {
		o.logf = func(string, ...any) {}
	}
}

// Until invokes check every interval until it reports met, returns an error,
// or timeout elapses. The timeout is never reported before it has elapsed.
func Until[T any](ctx context.Context, desc string, interval, timeout time.Duration, check Check[T], opts ...Option) (T, error) {
	o := &options{logf: log.Printf}
	for _, opt := range opts {
		opt(o)
	}

	var zero T
	start := time.Now()
	o.logf("%s...", desc)

	for {
		value, met, err := check(ctx)
		if err != nil {
			metrics.RecordPoll(err, time.Since(start))
			return zero, fmt.Errorf("%s: %w", desc, err)
		}
		if met {
			metrics.RecordPoll(nil, time.Since(start))
			o.logf("✓ %s", desc)
			return value, nil
		}

		if time.Since(start) >= timeout {
			err := &TimeoutError{Desc: desc, Timeout: timeout}
			metrics.RecordPoll(err, time.Since(start))
			return zero, err
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			metrics.RecordPoll(ctx.Err(), time.Since(start))
			return zero, fmt.Errorf("%s: %w", desc, ctx.Err())
		case <-timer.C:
		}
	}
}

// UntilTrue is the boolean form of Until for checks without a value.
func UntilTrue(ctx context.Context, desc string, interval, timeout time.Duration, check func(ctx context.Context) (bool, error), opts ...Option) error {
	_, err := Until(ctx, desc, interval, timeout, func(ctx context.Context) (struct{}, bool, error) {
		met, err := check(ctx)
		return struct{}{}, met, err
	}, opts...)
	return err
}
