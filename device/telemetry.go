// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cartertinney/iot-device-samples/hub"
	"github.com/cartertinney/iot-device-samples/internal/log"
	"github.com/cartertinney/iot-device-samples/internal/wallclock"
	"github.com/cartertinney/iot-device-samples/protocol"
	"github.com/cartertinney/iot-device-samples/sensor"
)

// TelemetryPublisher periodically reads a sensor and sends each reading as a
// telemetry message.
type TelemetryPublisher struct {
	sender  MessageSender
	sensor  Sensor
	options TelemetryOptions
	log     log.Logger
}

// TelemetryEncoding encodes reading values as a flat JSON object.
var TelemetryEncoding protocol.Encoding[map[string]float64] = protocol.JSON[map[string]float64]{}

// NewTelemetryPublisher creates a publisher. A nil sender only updates the
// display, for running without a cloud connection.
func NewTelemetryPublisher(
	sender MessageSender,
	s Sensor,
	opt ...TelemetryOption,
) *TelemetryPublisher {
	p := &TelemetryPublisher{sender: sender, sensor: s}
	p.options.Apply(opt)
	if p.options.Interval <= 0 {
		p.options.Interval = DefaultTelemetryInterval
	}
	if p.options.RetryInterval <= 0 {
		p.options.RetryInterval = DefaultRetryInterval
	}
	if p.options.Display == nil {
		p.options.Display = nopDisplay{}
	}
	p.log = log.Wrap(p.options.Logger)
	return p
}

// FormatClimate renders temperature and humidity for a 16-column display.
// Either field naming is accepted.
func FormatClimate(r sensor.Reading) string {
	return fmt.Sprintf(
		"%.1f°C   %.1f%%",
		firstValue(r, sensor.ModelTemperature, sensor.Temperature),
		firstValue(r, sensor.ModelHumidity, sensor.Humidity),
	)
}

func firstValue(r sensor.Reading, names ...string) float64 {
	for _, n := range names {
		if v, ok := r.Values[n]; ok {
			return v
		}
	}
	return 0
}

// Run publishes until the context is cancelled. Readings that are not ready
// are retried; any other failure is returned.
func (p *TelemetryPublisher) Run(ctx context.Context) error {
	for {
		r, err := p.sensor.Read(ctx)
		switch {
		case ctx.Err() != nil:
			return nil

		case errors.Is(err, sensor.ErrNotReady):
			p.log.Warn(ctx, err,
				slog.Duration("retry_interval", p.options.RetryInterval))
			if wallclock.Sleep(ctx, p.options.RetryInterval) != nil {
				return nil
			}
			continue

		case err != nil:
			return err
		}

		if err := p.Publish(ctx, r); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if wallclock.Sleep(ctx, p.options.Interval) != nil {
			return nil
		}
	}
}

// Publish sends a single reading and shows it on the display.
func (p *TelemetryPublisher) Publish(ctx context.Context, r sensor.Reading) error {
	if p.options.Format != nil {
		p.options.Display.Show(1, p.options.Format(r))
	}
	if p.sender == nil {
		return nil
	}

	msg, err := hub.NewMessage[map[string]float64](TelemetryEncoding, r.Values)
	if err != nil {
		return err
	}
	msg.CreationTime = r.Time
	if len(p.options.Properties) > 0 {
		msg.Properties = make(map[string]string, len(p.options.Properties))
		for k, v := range p.options.Properties {
			msg.Properties[k] = v
		}
	}

	if err := p.sender.SendMessage(ctx, msg); err != nil {
		return err
	}
	p.log.Info(ctx, "telemetry sent", slog.String("payload", string(msg.Payload)))
	return nil
}
