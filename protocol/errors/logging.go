// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errors

import "log/slog"

// Attrs exposes the populated fields of the error as log attributes.
func (e *Error) Attrs() []slog.Attr {
	attrs := []slog.Attr{slog.String("kind", e.Kind.String())}

	if e.NestedError != nil {
		attrs = append(attrs, slog.String("nested_error", e.NestedError.Error()))
	}
	if e.TimeoutName != "" {
		attrs = append(attrs,
			slog.String("timeout_name", e.TimeoutName),
			slog.Duration("timeout_value", e.TimeoutValue))
	}
	if e.PropertyName != "" {
		attrs = append(attrs, slog.String("property_name", e.PropertyName))
	}
	if e.PropertyValue != nil {
		attrs = append(attrs, slog.Any("property_value", e.PropertyValue))
	}
	if e.StatusCode != 0 {
		attrs = append(attrs, slog.Int("status_code", e.StatusCode))
	}
	return attrs
}
