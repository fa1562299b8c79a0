// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iso

import (
	"time"

	"github.com/relvacode/iso8601"
	"github.com/sosodev/duration"
)

// Wrappers for the native Go time types that will serialize to ISO 8601.
type (
	// DateTime is a date and time in ISO 8601 format, per RFC 3339.
	DateTime time.Time

	// Duration is a duration in ISO 8601 format. When decoded from the
	// environment it also accepts Go duration syntax (e.g. "1500ms").
	Duration time.Duration
)

// String returns the date-time to an ISO 8601 string.
func (dt DateTime) String() string {
	return time.Time(dt).Format(time.RFC3339)
}

// Time returns the native Go time.
func (dt DateTime) Time() time.Time {
	return time.Time(dt)
}

// MarshalText marshals the date-time to an ISO 8601 string.
func (dt DateTime) MarshalText() ([]byte, error) {
	return []byte(dt.String()), nil
}

// UnmarshalText unmarshals the date-time from an ISO 8601 string. The
// provisioning service reports timestamps with seven fractional digits,
// which RFC 3339 parsing alone does not accept.
func (dt *DateTime) UnmarshalText(b []byte) error {
	parsed, err := iso8601.Parse(b)
	if err != nil {
		return err
	}
	*dt = DateTime(parsed)
	return nil
}

// String returns the duration to an ISO 8601 string.
func (d Duration) String() string {
	return duration.Format(time.Duration(d))
}

// MarshalText marshals the duration to an ISO 8601 string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText unmarshals the duration from an ISO 8601 string.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := duration.Parse(string(b))
	if err != nil {
		return err
	}
	*d = Duration(parsed.ToTimeDuration())
	return nil
}

// Decode implements envdecode.Decoder.
func (d *Duration) Decode(s string) error {
	if parsed, err := time.ParseDuration(s); err == nil {
		*d = Duration(parsed)
		return nil
	}
	return d.UnmarshalText([]byte(s))
}
