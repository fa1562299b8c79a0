// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package device

import (
	"log/slog"
	"time"

	"github.com/cartertinney/iot-device-samples/internal/options"
	"github.com/cartertinney/iot-device-samples/sensor"
)

type (
	// TelemetryOption represents a single telemetry publisher option.
	TelemetryOption interface{ telemetry(*TelemetryOptions) }

	// TelemetryOptions are the resolved telemetry publisher options.
	TelemetryOptions struct {
		// Interval is the pause between published readings.
		Interval time.Duration

		// RetryInterval is the pause after a sensor reports it is not ready.
		RetryInterval time.Duration

		// Format renders a reading onto display line 1; nil leaves the
		// display alone.
		Format func(sensor.Reading) string

		// Properties are added to every message.
		Properties map[string]string

		Display Display
		Logger  *slog.Logger
	}

	// CommandOption represents a single command listener option.
	CommandOption interface{ command(*CommandOptions) }

	// CommandOptions are the resolved command listener options.
	CommandOptions struct {
		Display Display
		Logger  *slog.Logger
	}

	// TwinOption represents a single twin synchronizer option.
	TwinOption interface{ twin(*TwinOptions) }

	// TwinOptions are the resolved twin synchronizer options.
	TwinOptions struct {
		// VersionGuard drops desired patches whose version is not newer than
		// the last one applied.
		VersionGuard bool

		Properties []Property
		Display    Display
		Logger     *slog.Logger
	}

	// ControllerOption represents a single controller option.
	ControllerOption interface{ controller(*ControllerOptions) }

	// ControllerOptions are the resolved controller options.
	ControllerOptions struct {
		// Provisioner is consulted before dialing; nil skips provisioning.
		Provisioner Provisioner

		// Sensor is closed once every task has stopped.
		Sensor Sensor

		Components []Component

		// Quit ends the running phase when it is closed or receives.
		Quit <-chan struct{}

		Logger *slog.Logger
	}

	// WithInterval sets the telemetry interval.
	WithInterval time.Duration

	// WithRetryInterval sets the pause after a not-ready sensor read.
	WithRetryInterval time.Duration

	// WithMessageProperties adds application properties to telemetry.
	WithMessageProperties map[string]string

	// WithVersionGuard enables or disables dropping stale desired patches.
	WithVersionGuard bool

	// WithComponents adds tasks for the controller to run.
	WithComponents []Component

	withFormat      func(sensor.Reading) string
	withDisplay     struct{ Display }
	withProperty    struct{ Property }
	withProvisioner struct{ Provisioner }
	withSensor      struct{ Sensor }
	withQuit        <-chan struct{}
	withLogger      struct{ *slog.Logger }
)

const (
	DefaultTelemetryInterval = 5 * time.Second
	DefaultRetryInterval     = time.Second
)

// WithFormat renders each published reading onto the display.
func WithFormat(format func(sensor.Reading) string) TelemetryOption {
	return withFormat(format)
}

// WithDisplay sets the display updated by telemetry, commands and properties.
func WithDisplay(display Display) interface {
	TelemetryOption
	CommandOption
	TwinOption
} {
	return withDisplay{display}
}

// WithProperty registers a writable property.
func WithProperty(p Property) TwinOption {
	return withProperty{p}
}

// WithProvisioner registers the device before connecting.
func WithProvisioner(p Provisioner) ControllerOption {
	return withProvisioner{p}
}

// WithSensor hands ownership of the sensor to the controller.
func WithSensor(s Sensor) ControllerOption {
	return withSensor{s}
}

// WithQuit sets the operator quit signal.
func WithQuit(quit <-chan struct{}) ControllerOption {
	return withQuit(quit)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) interface {
	TelemetryOption
	CommandOption
	TwinOption
	ControllerOption
} {
	return withLogger{logger}
}

// Apply resolves the provided list of options.
func (o *TelemetryOptions) Apply(
	opts []TelemetryOption,
	rest ...TelemetryOption,
) {
	for opt := range options.Apply[TelemetryOption](opts, rest...) {
		opt.telemetry(o)
	}
}

func (o *TelemetryOptions) telemetry(opt *TelemetryOptions) {
	if o != nil {
		*opt = *o
	}
}

// Apply resolves the provided list of options.
func (o *CommandOptions) Apply(
	opts []CommandOption,
	rest ...CommandOption,
) {
	for opt := range options.Apply[CommandOption](opts, rest...) {
		opt.command(o)
	}
}

func (o *CommandOptions) command(opt *CommandOptions) {
	if o != nil {
		*opt = *o
	}
}

// Apply resolves the provided list of options.
func (o *TwinOptions) Apply(
	opts []TwinOption,
	rest ...TwinOption,
) {
	for opt := range options.Apply[TwinOption](opts, rest...) {
		opt.twin(o)
	}
}

func (o *TwinOptions) twin(opt *TwinOptions) {
	if o != nil {
		*opt = *o
	}
}

// Apply resolves the provided list of options.
func (o *ControllerOptions) Apply(
	opts []ControllerOption,
	rest ...ControllerOption,
) {
	for opt := range options.Apply[ControllerOption](opts, rest...) {
		opt.controller(o)
	}
}

func (o *ControllerOptions) controller(opt *ControllerOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithInterval) telemetry(opt *TelemetryOptions) {
	opt.Interval = time.Duration(o)
}

func (o WithRetryInterval) telemetry(opt *TelemetryOptions) {
	opt.RetryInterval = time.Duration(o)
}

func (o WithMessageProperties) telemetry(opt *TelemetryOptions) {
	if opt.Properties == nil {
		opt.Properties = make(map[string]string, len(o))
	}
	for k, v := range o {
		opt.Properties[k] = v
	}
}

func (o withFormat) telemetry(opt *TelemetryOptions) {
	opt.Format = o
}

func (o WithVersionGuard) twin(opt *TwinOptions) {
	opt.VersionGuard = bool(o)
}

func (o withProperty) twin(opt *TwinOptions) {
	opt.Properties = append(opt.Properties, o.Property)
}

func (o WithComponents) controller(opt *ControllerOptions) {
	opt.Components = append(opt.Components, o...)
}

func (o withProvisioner) controller(opt *ControllerOptions) {
	opt.Provisioner = o.Provisioner
}

func (o withSensor) controller(opt *ControllerOptions) {
	opt.Sensor = o.Sensor
}

func (o withQuit) controller(opt *ControllerOptions) {
	opt.Quit = o
}

func (o withDisplay) telemetry(opt *TelemetryOptions) {
	opt.Display = o.Display
}

func (o withDisplay) command(opt *CommandOptions) {
	opt.Display = o.Display
}

func (o withDisplay) twin(opt *TwinOptions) {
	opt.Display = o.Display
}

func (o withLogger) telemetry(opt *TelemetryOptions) {
	opt.Logger = o.Logger
}

func (o withLogger) command(opt *CommandOptions) {
	opt.Logger = o.Logger
}

func (o withLogger) twin(opt *TwinOptions) {
	opt.Logger = o.Logger
}

func (o withLogger) controller(opt *ControllerOptions) {
	opt.Logger = o.Logger
}
