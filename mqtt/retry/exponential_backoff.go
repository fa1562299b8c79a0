// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/cartertinney/iot-device-samples/internal/log"
	"github.com/cartertinney/iot-device-samples/internal/wallclock"
)

// ExponentialBackoff doubles the pause after every retryable failure, from
// MinInterval up to MaxInterval, with ±5% jitter unless NoJitter is set.
type ExponentialBackoff struct {
	// MaxAttempts bounds the attempts; zero means no bound and one disables
	// retries.
	MaxAttempts uint64

	// MinInterval defaults to 125ms and MaxInterval to 30s.
	MinInterval time.Duration
	MaxInterval time.Duration

	// Timeout bounds all attempts together.
	Timeout time.Duration

	NoJitter bool
	Logger   *slog.Logger
}

const (
	defaultMinInterval = 125 * time.Millisecond
	defaultMaxInterval = 30 * time.Second
)

// Start runs the task until it succeeds, returns a permanent error, exhausts
// its attempts or the context ends.
func (e *ExponentialBackoff) Start(
	ctx context.Context,
	name string,
	task Task,
) error {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	l := logger{log.Wrap(e.Logger)}
	var attempt uint64
	for {
		attempt++
		l.attempt(ctx, name, attempt)

		retryable, err := task(ctx)
		if err == nil {
			l.complete(ctx, name, attempt, nil)
			return nil
		}

		pause := e.Interval(ctx, attempt, retryable)
		if pause == 0 {
			l.complete(ctx, name, attempt, err)
			return err
		}
		if err := wallclock.Sleep(ctx, pause); err != nil {
			l.complete(ctx, name, attempt, err)
			return err
		}
	}
}

// Interval is the pause before the attempt after the given one; zero means
// the task must not be attempted again.
func (e *ExponentialBackoff) Interval(
	ctx context.Context,
	attempt uint64,
	retryable bool,
) time.Duration {
	if !retryable || ctx.Err() != nil ||
		(e.MaxAttempts > 0 && attempt >= e.MaxAttempts) {
		return 0
	}

	lo, hi := e.MinInterval, e.MaxInterval
	if lo <= 0 {
		lo = defaultMinInterval
	}
	if hi <= 0 {
		hi = defaultMaxInterval
	}

	pause := lo
	for i := uint64(1); i < attempt && pause < hi; i++ {
		pause *= 2
	}
	pause = min(pause, hi)

	if !e.NoJitter {
		// #nosec G404
		pause = time.Duration(float64(pause) * (0.95 + 0.1*rand.Float64()))
	}
	return pause
}
