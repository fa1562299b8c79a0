// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package retry

import (
	"context"
	"log/slog"

	"github.com/cartertinney/iot-device-samples/internal/log"
)

type logger struct{ log.Logger }

func (l *logger) attempt(ctx context.Context, task string, attempt uint64) {
	l.Debug(ctx, "retry attempt",
		slog.String("task", task),
		slog.Uint64("attempt", attempt),
	)
}

func (l *logger) complete(
	ctx context.Context,
	task string,
	attempt uint64,
	err error,
) {
	if err != nil {
		l.Warn(ctx, err,
			slog.String("task", task),
			slog.Uint64("attempt", attempt),
		)
		return
	}
	if attempt > 1 {
		l.Info(ctx, "retry succeeded",
			slog.String("task", task),
			slog.Uint64("attempt", attempt),
		)
	}
}
