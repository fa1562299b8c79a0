// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errors

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Normalize well-known errors into structured errors.
func Normalize(err error, msg string) error {
	if e, ok := err.(*Error); ok {
		return e
	}

	switch {
	case err == nil:
		return nil

	case os.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return &Error{
			Message:     fmt.Sprintf("%s timed out", msg),
			Kind:        Timeout,
			NestedError: err,
		}

	case errors.Is(err, context.Canceled):
		return &Error{
			Message:     fmt.Sprintf("%s cancelled", msg),
			Kind:        Cancellation,
			NestedError: err,
		}

	default:
		return &Error{
			Message:     fmt.Sprintf("%s error: %s", msg, err.Error()),
			Kind:        UnknownError,
			NestedError: err,
		}
	}
}

// Context extracts the timeout or cancellation error from a context.
func Context(ctx context.Context, msg string) error {
	// A cause set by our own code (or the caller) is returned as-is.
	if err := context.Cause(ctx); err != nil && err != ctx.Err() {
		return err
	}
	return Normalize(ctx.Err(), msg)
}

// Service builds the error for a non-success status returned by the hub or
// provisioning service.
func Service(operation string, status int, body []byte) error {
	msg := fmt.Sprintf("%s failed with status %d", operation, status)
	if len(body) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}
	return &Error{
		Message:    msg,
		Kind:       ServiceError,
		StatusCode: status,
	}
}

// IsKind reports whether any error in the chain is an *Error of the given
// kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
