// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package device

import (
	"context"
	"sync"

	"github.com/cartertinney/iot-device-samples/hub"
	"github.com/cartertinney/iot-device-samples/internal/wallclock"
	"github.com/cartertinney/iot-device-samples/provisioning"
	"github.com/cartertinney/iot-device-samples/sensor"
)

type (
	fakeTransport struct {
		mu sync.Mutex

		methods chan *hub.MethodRequest
		patches chan hub.TwinProperties
		twin    *hub.Twin

		sendErr    error
		respondErr error
		reportErr  error

		sent      []*hub.Message
		responses []*hub.MethodResponse
		reported  []hub.TwinProperties

		connected         bool
		shutdown          bool
		sentAfterShutdown int
	}

	fakeSensor struct {
		mu     sync.Mutex
		errs   []error
		reads  int
		closed bool
	}

	fakeDisplay struct {
		mu      sync.Mutex
		lines   map[int]string
		cleared int
	}

	fakeProvisioner struct {
		result *provisioning.RegistrationResult
		err    error
	}
)

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		methods: make(chan *hub.MethodRequest, 8),
		patches: make(chan hub.TwinProperties, 8),
		twin: &hub.Twin{
			Desired:  hub.TwinProperties{"$version": float64(1)},
			Reported: hub.TwinProperties{},
		},
	}
}

func (t *fakeTransport) Connect(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	return nil
}

func (t *fakeTransport) Shutdown(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shutdown = true
	return nil
}

func (t *fakeTransport) SendMessage(_ context.Context, msg *hub.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.shutdown {
		t.sentAfterShutdown++
	}
	if t.sendErr != nil {
		return t.sendErr
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *fakeTransport) ReceiveMethodRequest(
	ctx context.Context,
	_ string,
) (*hub.MethodRequest, error) {
	select {
	case req := <-t.methods:
		return req, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *fakeTransport) SendMethodResponse(
	_ context.Context,
	res *hub.MethodResponse,
) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.responses = append(t.responses, res)
	return t.respondErr
}

func (t *fakeTransport) GetTwin(context.Context) (*hub.Twin, error) {
	return t.twin, nil
}

func (t *fakeTransport) ReceiveTwinDesiredPropertiesPatch(
	ctx context.Context,
) (hub.TwinProperties, error) {
	select {
	case p := <-t.patches:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (t *fakeTransport) PatchTwinReportedProperties(
	_ context.Context,
	patch hub.TwinProperties,
) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.reportErr != nil {
		return 0, t.reportErr
	}
	t.reported = append(t.reported, patch)
	return len(t.reported), nil
}

func (t *fakeTransport) sentCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func (t *fakeTransport) reportedPatches() []hub.TwinProperties {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]hub.TwinProperties(nil), t.reported...)
}

func (t *fakeTransport) methodResponses() []*hub.MethodResponse {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*hub.MethodResponse(nil), t.responses...)
}

func (s *fakeSensor) Read(context.Context) (sensor.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return sensor.Reading{}, err
	}
	return sensor.Reading{
		Values: map[string]float64{
			sensor.Temperature: 22.41,
			sensor.Humidity:    61,
		},
		Time: wallclock.Instance.Now(),
	}, nil
}

func (s *fakeSensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSensor) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newFakeDisplay() *fakeDisplay {
	return &fakeDisplay{lines: map[int]string{}}
}

func (d *fakeDisplay) Show(line int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines[line] = text
}

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = map[int]string{}
	d.cleared++
}

func (d *fakeDisplay) line(n int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lines[n]
}

func (p *fakeProvisioner) Register(
	context.Context,
) (*provisioning.RegistrationResult, error) {
	return p.result, p.err
}
