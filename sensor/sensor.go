// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package sensor

import (
	"errors"
	"math"
	"time"
)

// ErrNotReady is returned by a sensor when a reading could not be taken this
// time but may succeed on a later attempt.
var ErrNotReady = errors.New("sensor not ready")

// Reading is a set of named measurements taken at one instant.
type Reading struct {
	Values map[string]float64
	Time   time.Time
}

// Common field names.
const (
	Temperature = "temperature"
	Humidity    = "humidity"
	Speed       = "Speed"
)

// Field names of the thermostat device model.
const (
	ModelTemperature = "Temperature"
	ModelHumidity    = "Humidity"
)

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
