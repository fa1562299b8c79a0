// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package iso_test

import (
	"testing"
	"time"

	"github.com/cartertinney/iot-device-samples/protocol/iso"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

type registration struct {
	CreatedDateTimeUtc iso.DateTime `json:"createdDateTimeUtc"`
	RetryAfter         iso.Duration `json:"retryAfter"`
}

func TestDateTimeFractional(t *testing.T) {
	var r registration
	err := json.Unmarshal([]byte(`{
		"createdDateTimeUtc": "2024-05-01T10:11:12.1234567Z",
		"retryAfter": "PT3S"
	}`), &r)
	require.NoError(t, err)

	expected := time.Date(2024, 5, 1, 10, 11, 12, 123456700, time.UTC)
	require.True(t, expected.Equal(r.CreatedDateTimeUtc.Time()))
	require.Equal(t, 3*time.Second, time.Duration(r.RetryAfter))
}

func TestDateTimeMarshal(t *testing.T) {
	dt := iso.DateTime(time.Date(2024, 5, 1, 10, 11, 12, 0, time.UTC))
	b, err := dt.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "2024-05-01T10:11:12Z", string(b))
}

func TestDurationDecode(t *testing.T) {
	for in, out := range map[string]time.Duration{
		"5s":     5 * time.Second,
		"1500ms": 1500 * time.Millisecond,
		"PT2S":   2 * time.Second,
		"PT1M":   time.Minute,
	} {
		var d iso.Duration
		require.NoError(t, d.Decode(in), in)
		require.Equal(t, out, time.Duration(d), in)
	}

	var d iso.Duration
	require.Error(t, d.Decode("soon"))
}
