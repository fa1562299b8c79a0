// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package sensor

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/cartertinney/iot-device-samples/internal/wallclock"
)

type (
	// Field is a uniformly distributed value in [Min, Min+Span).
	Field struct {
		Name string
		Min  float64
		Span float64
	}

	// Uniform synthesizes readings whose fields are uniformly distributed,
	// rounded to two decimals.
	Uniform struct {
		Fields []Field

		// FailureRate is the probability that a read returns ErrNotReady,
		// mimicking a flaky single-wire sensor.
		FailureRate float64

		// Rand is the randomness source; nil uses the global source.
		Rand *rand.Rand

		mu sync.Mutex
	}

	// Sine synthesizes a single field following a noisy sine wave.
	Sine struct {
		Name      string
		Amplitude float64
		Offset    float64
		Noise     float64
		Step      float64

		Rand *rand.Rand

		mu     sync.Mutex
		period float64
	}
)

// NewEnvironment returns a simulator producing temperature in [20, 35) and
// humidity in [60, 80).
func NewEnvironment() *Uniform {
	return climate(Temperature, Humidity)
}

// NewClimate is NewEnvironment with the field names of the thermostat device
// model.
func NewClimate() *Uniform {
	return climate(ModelTemperature, ModelHumidity)
}

func climate(temperature, humidity string) *Uniform {
	return &Uniform{Fields: []Field{
		{Name: temperature, Min: 20, Span: 15},
		{Name: humidity, Min: 60, Span: 20},
	}}
}

// NewSpeed returns a simulator producing a "Speed" field that oscillates
// around 12 with an amplitude of 10.
func NewSpeed() *Sine {
	return &Sine{
		Name:      Speed,
		Amplitude: 10,
		Offset:    12,
		Noise:     2,
		Step:      math.Pi / 8,
	}
}

// Read returns a new simulated reading.
func (u *Uniform) Read(context.Context) (Reading, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.FailureRate > 0 && u.float() < u.FailureRate {
		return Reading{}, ErrNotReady
	}

	values := make(map[string]float64, len(u.Fields))
	for _, f := range u.Fields {
		values[f.Name] = round2(f.Min + u.float()*f.Span)
	}
	return Reading{Values: values, Time: wallclock.Instance.Now()}, nil
}

// Close is a no-op.
func (*Uniform) Close() error {
	return nil
}

func (u *Uniform) float() float64 {
	if u.Rand != nil {
		return u.Rand.Float64()
	}
	return rand.Float64()
}

// Read returns the next point on the wave.
func (s *Sine) Read(context.Context) (Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	noise := rand.Float64
	if s.Rand != nil {
		noise = s.Rand.Float64
	}

	v := round2(s.Amplitude*math.Sin(s.period) + noise()*s.Noise + s.Offset)
	s.period += s.Step
	return Reading{
		Values: map[string]float64{s.Name: v},
		Time:   wallclock.Instance.Now(),
	}, nil
}

// Close is a no-op.
func (*Sine) Close() error {
	return nil
}
