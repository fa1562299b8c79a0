// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package wallclock routes the time lookups of the device loop through a
// replaceable clock so tests can pin timestamps and skip pauses.
package wallclock

import (
	"context"
	"time"
)

type (
	// WallClock is the subset of package time the device code depends on.
	WallClock interface {
		Now() time.Time
		After(d time.Duration) <-chan time.Time
	}

	system struct{}
)

// Instance is the clock in use. Tests may replace it.
var Instance WallClock = system{}

func (system) Now() time.Time {
	return time.Now()
}

func (system) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Sleep pauses for d on the current clock. It returns the context error if
// the context ends first.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-Instance.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
