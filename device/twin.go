// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cartertinney/iot-device-samples/hub"
	"github.com/cartertinney/iot-device-samples/internal/log"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
	"github.com/goccy/go-json"
)

type (
	// Property is a writable twin property the device acts on.
	Property interface {
		Name() string

		// Apply acts on a new desired value.
		Apply(ctx context.Context, value any, display Display) error

		// Current is the value reported when the device starts.
		Current() any
	}

	// TwinSynchronizer acknowledges desired property patches and applies the
	// registered properties.
	TwinSynchronizer struct {
		transport TwinTransport
		options   TwinOptions
		log       log.Logger

		mu      sync.Mutex
		version int
		seeded  bool
	}

	// OptimalTemperature stores the desired optimal temperature in State.
	OptimalTemperature struct {
		State *State
	}
)

// AckDescription describes every successful acknowledgement.
const AckDescription = "Successfully executed patch"

// NewTwinSynchronizer creates a synchronizer. The version guard is enabled
// unless disabled with WithVersionGuard(false).
func NewTwinSynchronizer(
	transport TwinTransport,
	opt ...TwinOption,
) *TwinSynchronizer {
	s := &TwinSynchronizer{
		transport: transport,
		options:   TwinOptions{VersionGuard: true},
	}
	s.options.Apply(opt)
	if s.options.Display == nil {
		s.options.Display = nopDisplay{}
	}
	s.log = log.Wrap(s.options.Logger)
	return s
}

// Acks builds the acknowledgement of every device property in a patch.
func Acks(patch hub.TwinProperties, version int) hub.TwinProperties {
	acks := make(hub.TwinProperties, len(patch))
	for k, v := range patch {
		if hub.IsReserved(k) {
			continue
		}
		acks[k] = hub.Ack{
			Code:        StatusOK,
			Description: AckDescription,
			Version:     version,
			Value:       v,
		}
	}
	return acks
}

// Initialize reads the twin, applies its desired values and writes one
// reported patch: an acknowledgement for every desired value and the current
// value of every registered property the service has no desired value for.
// The version guard is seeded only once that write succeeds.
func (s *TwinSynchronizer) Initialize(ctx context.Context) error {
	twin, err := s.transport.GetTwin(ctx)
	if err != nil {
		return err
	}

	version, seeded := twin.Desired.Version()
	s.apply(ctx, twin.Desired)

	reported := Acks(twin.Desired, version)
	for _, p := range s.options.Properties {
		if _, ok := reported[p.Name()]; !ok {
			reported[p.Name()] = p.Current()
		}
	}
	if len(reported) > 0 {
		if _, err := s.transport.PatchTwinReportedProperties(ctx, reported); err != nil {
			return err
		}
	}

	if seeded {
		s.mu.Lock()
		if !s.seeded || version > s.version {
			s.version, s.seeded = version, true
		}
		s.mu.Unlock()
	}
	return nil
}

// Run processes desired patches until the context is cancelled.
func (s *TwinSynchronizer) Run(ctx context.Context) error {
	for {
		patch, err := s.transport.ReceiveTwinDesiredPropertiesPatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := s.Handle(ctx, patch); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// Handle acknowledges a single patch in one reported properties write, then
// applies the registered properties it contains.
func (s *TwinSynchronizer) Handle(
	ctx context.Context,
	patch hub.TwinProperties,
) error {
	version, _ := patch.Version()
	if !s.advance(version) {
		s.log.Debug(ctx, "stale desired patch ignored",
			slog.Int("version", version))
		return nil
	}

	acks := Acks(patch, version)
	if len(acks) > 0 {
		if _, err := s.transport.PatchTwinReportedProperties(ctx, acks); err != nil {
			return err
		}
	}
	s.log.Info(ctx, "desired patch acknowledged",
		slog.Int("version", version),
		slog.Int("properties", len(acks)))

	s.apply(ctx, patch)
	return nil
}

func (s *TwinSynchronizer) advance(version int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.options.VersionGuard && s.seeded && version <= s.version {
		return false
	}
	s.version, s.seeded = version, true
	return true
}

// apply hands every registered property present in the document to its
// handler. A value the handler rejects is logged and skipped.
func (s *TwinSynchronizer) apply(ctx context.Context, desired hub.TwinProperties) {
	for _, p := range s.options.Properties {
		v, ok := desired[p.Name()]
		if !ok {
			continue
		}
		if err := p.Apply(ctx, v, s.options.Display); err != nil {
			s.log.Warn(ctx, err, slog.String("property", p.Name()))
		}
	}
}

func (OptimalTemperature) Name() string {
	return "OptimalTemperature"
}

// Apply stores the temperature and shows it on display line 2.
func (p OptimalTemperature) Apply(
	_ context.Context,
	value any,
	display Display,
) error {
	t, err := toFloat(value)
	if err != nil {
		return &errors.Error{
			Message:       "optimal temperature is not a number",
			Kind:          errors.PayloadInvalid,
			NestedError:   err,
			PropertyName:  p.Name(),
			PropertyValue: value,
		}
	}

	p.State.SetOptimalTemperature(t)
	display.Show(2, fmt.Sprintf("Desired: %.1f°C", t))
	return nil
}

func (p OptimalTemperature) Current() any {
	return p.State.OptimalTemperature()
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
