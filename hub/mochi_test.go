// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cartertinney/iot-device-samples/hub"
	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/mqtt/retry"
	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/stretchr/testify/require"
)

const (
	mochiPort = 18841
	deviceKey = "dGhlcm1vc3RhdC1kZXZpY2Uta2V5LTAxMjM0NTY3ODk="
)

// emulateHub answers twin requests the way IoT Hub does and forwards
// telemetry and method responses to the returned channel.
func emulateHub(t *testing.T) (*mochi.Server, <-chan packets.Packet) {
	server := mochi.New(&mochi.Options{InlineClient: true})
	require.NoError(t, server.AddHook(new(auth.AllowHook), nil))
	require.NoError(t, server.AddListener(listeners.NewTCP(listeners.Config{
		ID:      "hub",
		Type:    "tcp",
		Address: fmt.Sprintf("localhost:%d", mochiPort),
	})))
	require.NoError(t, server.Serve())
	t.Cleanup(func() { _ = server.Close() })

	received := make(chan packets.Packet, 16)
	reply := func(topic, payload string) {
		go func() { _ = server.Publish(topic, []byte(payload), false, 1) }()
	}

	require.NoError(t, server.Subscribe("$iothub/twin/GET/#", 1,
		func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
			reply("$iothub/twin/res/200/?$rid="+rid(pk.TopicName),
				`{"desired":{"OptimalTemperature":22.5,"$version":2},"reported":{"$version":1}}`)
		}))
	require.NoError(t, server.Subscribe("$iothub/twin/PATCH/properties/reported/#", 2,
		func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
			received <- pk
			reply("$iothub/twin/res/204/?$rid="+rid(pk.TopicName)+"&$version=2", "")
		}))
	require.NoError(t, server.Subscribe("devices/+/messages/events/#", 3,
		func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
			received <- pk
		}))
	require.NoError(t, server.Subscribe("$iothub/methods/res/#", 4,
		func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
			received <- pk
		}))

	return server, received
}

func TestHubOverMochi(t *testing.T) {
	server, received := emulateHub(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := hub.NewSymmetricKeyClient("localhost", "thermostat1", deviceKey,
		hub.WithConnection(mqtt.TCPConnection("localhost", mochiPort)),
		hub.WithModelID("dtmi:com:example:Thermostat;1"),
		hub.WithMethods{"Reset"},
		hub.WithSessionClientOptions(
			mqtt.WithConnectionRetry(&retry.ExponentialBackoff{MaxAttempts: 1}),
		),
	)
	require.NoError(t, err)
	require.NoError(t, client.Connect(ctx))
	defer func() { require.NoError(t, client.Shutdown(ctx)) }()

	twin, err := client.GetTwin(ctx)
	require.NoError(t, err)
	require.Equal(t, 22.5, twin.Desired["OptimalTemperature"])

	version, err := client.PatchTwinReportedProperties(ctx,
		hub.TwinProperties{"OptimalTemperature": 22.5})
	require.NoError(t, err)
	require.Equal(t, 2, version)
	pk := <-received
	require.JSONEq(t, `{"OptimalTemperature":22.5}`, string(pk.Payload))

	require.NoError(t, client.SendMessage(ctx, &hub.Message{
		Payload:         []byte(`{"temperature":21.25,"humidity":40}`),
		ContentType:     "application/json",
		ContentEncoding: "utf-8",
	}))
	pk = <-received
	require.True(t, strings.HasPrefix(pk.TopicName, "devices/thermostat1/messages/events/"))
	require.Contains(t, pk.TopicName, "$.ct=application%2Fjson")

	require.NoError(t, server.Publish("$iothub/methods/POST/Reset/?$rid=11", nil, false, 1))
	req, err := client.ReceiveMethodRequest(ctx, "Reset")
	require.NoError(t, err)
	require.Empty(t, req.Payload)
	require.NoError(t, client.SendMethodResponse(ctx, &hub.MethodResponse{
		RequestID: req.RequestID,
		Status:    200,
		Payload:   map[string]any{"result": true, "data": "reset succeeded"},
	}))
	pk = <-received
	require.Equal(t, "$iothub/methods/res/200/?$rid=11", pk.TopicName)

	require.NoError(t, server.Publish(
		"$iothub/twin/PATCH/properties/desired/?$version=3",
		[]byte(`{"OptimalTemperature":26.5,"$version":3}`), false, 1))
	patch, err := client.ReceiveTwinDesiredPropertiesPatch(ctx)
	require.NoError(t, err)
	require.Equal(t, 26.5, patch["OptimalTemperature"])
}
