// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package log

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/cartertinney/iot-device-samples/internal/wallclock"
)

type (
	// Logger is a wrapper around an slog.Logger with additional helpers and nil
	// checking.
	Logger struct{ logger *slog.Logger }

	// Attrs represents an object that exposes extra slog attributes to log.
	Attrs interface {
		Attrs() []slog.Attr
	}
)

// Wrap the first non-nil slog logger.
func Wrap(logger ...*slog.Logger) Logger {
	for _, l := range logger {
		if l != nil {
			return Logger{l}
		}
	}
	return Logger{}
}

// Enabled indicates whether the logger is enabled at the given level.
func (l *Logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.logger != nil && l.logger.Enabled(ctx, level)
}

// Log is designed to build logging wrappers; it should not be called directly.
// See: https://pkg.go.dev/log/slog#hdr-Wrapping_output_methods
func (l *Logger) Log(
	ctx context.Context,
	level slog.Level,
	msg string,
	attrs ...slog.Attr,
) {
	l.log(ctx, level, msg, attrs)
}

func (l *Logger) log(
	ctx context.Context,
	level slog.Level,
	msg string,
	attrs []slog.Attr,
) {
	if !l.Enabled(ctx, level) {
		return
	}

	now := wallclock.Instance.Now()
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(now, level, msg, pcs[0])
	r.AddAttrs(attrs...)
	_ = l.logger.Handler().Handle(ctx, r)
}

// Debug logs a message at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelDebug, msg, attrs)
}

// Info logs a message at info level.
func (l *Logger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelInfo, msg, attrs)
}

// Warn logs an error as a warning, expanding any structured attributes.
func (l *Logger) Warn(ctx context.Context, err error, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelWarn, err.Error(), append(errAttrs(err), attrs...))
}

// Err logs an error with structured logging.
func (l *Logger) Err(ctx context.Context, err error, attrs ...slog.Attr) {
	l.log(ctx, slog.LevelError, err.Error(), append(errAttrs(err), attrs...))
}

func errAttrs(err error) []slog.Attr {
	if a, ok := err.(Attrs); ok {
		return a.Attrs()
	}
	return nil
}
