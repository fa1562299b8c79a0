// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package sensor

import (
	"context"
	"errors"
	"strings"

	"github.com/cartertinney/iot-device-samples/internal/wallclock"
	"github.com/shirou/gopsutil/v3/host"
)

// Host reads the temperature of the machine's own hardware sensors, for
// running the samples without attached hardware.
type Host struct {
	// Key selects sensors whose key contains it (e.g. "coretemp"); empty
	// averages every sensor reporting a temperature.
	Key string

	temperatures func(context.Context) ([]host.TemperatureStat, error)
}

// NewHost returns a host sensor filtered by key.
func NewHost(key string) *Host {
	return &Host{Key: key, temperatures: host.SensorsTemperaturesWithContext}
}

// Read averages the matching sensors. A platform without readable sensors
// reports ErrNotReady.
func (h *Host) Read(ctx context.Context) (Reading, error) {
	stats, err := h.temperatures(ctx)
	// Partial results come back alongside warnings.
	if err != nil && len(stats) == 0 {
		return Reading{}, errors.Join(ErrNotReady, err)
	}

	var sum float64
	var n int
	for _, s := range stats {
		if s.Temperature <= 0 || !strings.Contains(s.SensorKey, h.Key) {
			continue
		}
		sum += s.Temperature
		n++
	}
	if n == 0 {
		return Reading{}, ErrNotReady
	}

	return Reading{
		Values: map[string]float64{Temperature: round2(sum / float64(n))},
		Time:   wallclock.Instance.Now(),
	}, nil
}

// Close is a no-op.
func (*Host) Close() error {
	return nil
}
