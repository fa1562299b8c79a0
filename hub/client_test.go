// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cartertinney/iot-device-samples/hub"
	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/protocol"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
	"github.com/stretchr/testify/require"
)

type (
	published struct {
		Topic   string
		Payload []byte
	}

	// fakeMqtt stands in for the hub: respond is called for every publish
	// and may inject replies through the registered handler.
	fakeMqtt struct {
		mu         sync.Mutex
		handler    mqtt.MessageHandler
		subscribed []string
		published  chan published
		respond    func(f *fakeMqtt, topic string, payload []byte)
	}
)

func newFake() *fakeMqtt {
	return &fakeMqtt{published: make(chan published, 16)}
}

func (*fakeMqtt) ID() string { return "thermostat1" }
func (*fakeMqtt) Connect(context.Context) error { return nil }
func (*fakeMqtt) Disconnect(context.Context) error { return nil }

func (f *fakeMqtt) Publish(
	_ context.Context,
	topic string,
	payload []byte,
	_ ...mqtt.PublishOption,
) error {
	f.published <- published{topic, payload}
	if f.respond != nil {
		go f.respond(f, topic, payload)
	}
	return nil
}

func (f *fakeMqtt) Subscribe(
	_ context.Context,
	filter string,
	_ ...mqtt.SubscribeOption,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribed = append(f.subscribed, filter)
	return nil
}

func (f *fakeMqtt) RegisterMessageHandler(h mqtt.MessageHandler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.handler = nil
	}
}

func (f *fakeMqtt) inject(topic, payload string) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(context.Background(), &mqtt.Message{Topic: topic, Payload: []byte(payload)})
	}
}

func rid(topic string) string {
	_, q, _ := strings.Cut(topic, "$rid=")
	return q
}

func connect(t *testing.T, f *fakeMqtt, opt ...hub.ClientOption) *hub.Client {
	client, err := hub.NewClient(f, "thermostat1", opt...)
	require.NoError(t, err)
	require.NoError(t, client.Connect(context.Background()))
	t.Cleanup(func() { _ = client.Shutdown(context.Background()) })
	return client
}

func TestNewClientRequiresDeviceID(t *testing.T) {
	_, err := hub.NewClient(newFake(), "")
	require.True(t, errors.IsKind(err, errors.ConfigurationInvalid))
}

func TestConnectSubscribes(t *testing.T) {
	f := newFake()
	connect(t, f)
	require.ElementsMatch(t, []string{
		"$iothub/methods/POST/#",
		"$iothub/twin/res/#",
		"$iothub/twin/PATCH/properties/desired/#",
	}, f.subscribed)
}

func TestSendMessage(t *testing.T) {
	f := newFake()
	client := connect(t, f)

	msg, err := hub.NewMessage[map[string]float64](
		protocol.JSON[map[string]float64]{},
		map[string]float64{"temperature": 21.5},
	)
	require.NoError(t, err)
	require.NoError(t, client.SendMessage(context.Background(), msg))

	pub := <-f.published
	require.Equal(t,
		"devices/thermostat1/messages/events/$.ct=application%2Fjson&$.ce=utf-8",
		pub.Topic,
	)
	require.JSONEq(t, `{"temperature":21.5}`, string(pub.Payload))
}

func TestGetTwin(t *testing.T) {
	f := newFake()
	f.respond = func(f *fakeMqtt, topic string, _ []byte) {
		f.inject("$iothub/twin/res/200/?$rid="+rid(topic),
			`{"desired":{"OptimalTemperature":27,"$version":4},"reported":{"$version":1}}`)
	}
	client := connect(t, f)

	twin, err := client.GetTwin(context.Background())
	require.NoError(t, err)
	require.Equal(t, float64(27), twin.Desired["OptimalTemperature"])
	v, ok := twin.Desired.Version()
	require.True(t, ok)
	require.Equal(t, 4, v)
	require.True(t, strings.HasPrefix((<-f.published).Topic, "$iothub/twin/GET/?$rid="))
}

func TestGetTwinServiceError(t *testing.T) {
	f := newFake()
	f.respond = func(f *fakeMqtt, topic string, _ []byte) {
		f.inject("$iothub/twin/res/429/?$rid="+rid(topic), `{"message":"throttled"}`)
	}
	client := connect(t, f)

	_, err := client.GetTwin(context.Background())
	require.True(t, errors.IsKind(err, errors.ServiceError))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, 429, e.StatusCode)
}

func TestGetTwinTimeout(t *testing.T) {
	f := newFake()
	client := connect(t, f, hub.WithTimeout(20*time.Millisecond))

	_, err := client.GetTwin(context.Background())
	require.True(t, errors.IsKind(err, errors.Timeout))
}

func TestPatchReportedProperties(t *testing.T) {
	f := newFake()
	f.respond = func(f *fakeMqtt, topic string, _ []byte) {
		f.inject("$iothub/twin/res/204/?$rid="+rid(topic)+"&$version=9", "")
	}
	client := connect(t, f)

	version, err := client.PatchTwinReportedProperties(
		context.Background(),
		hub.TwinProperties{"OptimalTemperature": 25.0},
	)
	require.NoError(t, err)
	require.Equal(t, 9, version)

	pub := <-f.published
	require.True(t, strings.HasPrefix(pub.Topic, "$iothub/twin/PATCH/properties/reported/?$rid="))
	require.JSONEq(t, `{"OptimalTemperature":25}`, string(pub.Payload))
}

func TestReceiveMethodRequest(t *testing.T) {
	f := newFake()
	client := connect(t, f, hub.WithMethods{"Reset"})
	ctx := context.Background()

	// Delivered before anyone is receiving; held for the declared name.
	f.inject("$iothub/methods/POST/Reset/?$rid=1", "")

	req, err := client.ReceiveMethodRequest(ctx, "Reset")
	require.NoError(t, err)
	require.Equal(t, "Reset", req.Name)
	require.Equal(t, "1", req.RequestID)
	require.NotNil(t, req.Payload)
	require.Empty(t, req.Payload)

	require.NoError(t, client.SendMethodResponse(ctx, &hub.MethodResponse{
		RequestID: req.RequestID,
		Status:    200,
		Payload:   map[string]any{"result": true, "data": "reset succeeded"},
	}))

	pub := <-f.published
	require.Equal(t, "$iothub/methods/res/200/?$rid=1", pub.Topic)
	require.JSONEq(t, `{"result":true,"data":"reset succeeded"}`, string(pub.Payload))
}

func TestReceiveMethodRequestCatchAll(t *testing.T) {
	f := newFake()
	client := connect(t, f, hub.WithMethods{"Reset"})
	ctx := context.Background()

	f.inject("$iothub/methods/POST/Reboot/?$rid=2", `{"delay":5}`)
	f.inject("$iothub/methods/POST/Reset/?$rid=3", `{}`)

	req, err := client.ReceiveMethodRequest(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "Reboot", req.Name)
	require.Equal(t, float64(5), req.Payload["delay"])

	req, err = client.ReceiveMethodRequest(ctx, "Reset")
	require.NoError(t, err)
	require.Equal(t, "3", req.RequestID)
}

func TestMethodRequestInvalidPayload(t *testing.T) {
	f := newFake()
	connect(t, f)

	f.inject("$iothub/methods/POST/Reset/?$rid=3", `"not an object"`)

	pub := <-f.published
	require.Equal(t, "$iothub/methods/res/400/?$rid=3", pub.Topic)
}

func TestReceiveDesiredPatch(t *testing.T) {
	f := newFake()
	client := connect(t, f)

	f.inject("$iothub/twin/PATCH/properties/desired/?$version=3",
		`{"OptimalTemperature":26.5,"$version":3}`)
	f.inject("$iothub/twin/PATCH/properties/desired/?$version=4",
		`{"OptimalTemperature":24}`)

	patch, err := client.ReceiveTwinDesiredPropertiesPatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 26.5, patch["OptimalTemperature"])
	v, _ := patch.Version()
	require.Equal(t, 3, v)

	patch, err = client.ReceiveTwinDesiredPropertiesPatch(context.Background())
	require.NoError(t, err)
	v, ok := patch.Version()
	require.True(t, ok)
	require.Equal(t, 4, v)
}

func TestReceiveCancelled(t *testing.T) {
	client := connect(t, newFake())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ReceiveTwinDesiredPropertiesPatch(ctx)
	require.True(t, errors.IsKind(err, errors.Cancellation))
}
