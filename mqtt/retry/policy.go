// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package retry runs operations such as the initial broker connection until
// they succeed, fail permanently or run out of attempts.
package retry

import "context"

type (
	// Task is a single attempt. It reports whether a failure is worth
	// another attempt.
	Task = func(ctx context.Context) (retryable bool, err error)

	// Policy decides when and how often a task is attempted.
	Policy interface {
		Start(ctx context.Context, name string, task Task) error
	}
)
