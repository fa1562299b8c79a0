// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cartertinney/iot-device-samples/internal/inbox"
	"github.com/cartertinney/iot-device-samples/internal/log"
	"github.com/cartertinney/iot-device-samples/internal/rpc"
	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
)

type (
	// MqttClient is the subset of the MQTT session client used by the hub
	// client.
	MqttClient interface {
		ID() string
		Connect(context.Context) error
		Publish(
			ctx context.Context,
			topic string,
			payload []byte,
			opt ...mqtt.PublishOption,
		) error
		Subscribe(
			ctx context.Context,
			topicFilter string,
			opt ...mqtt.SubscribeOption,
		) error
		RegisterMessageHandler(mqtt.MessageHandler) func()
		Disconnect(context.Context) error
	}

	// Client speaks the IoT Hub device protocol (telemetry, direct methods
	// and device twin) over an MQTT session.
	Client struct {
		mqtt     MqttClient
		deviceID string
		options  ClientOptions

		methodMu sync.Mutex
		methods  map[string]*inbox.Inbox[*MethodRequest]

		desired *inbox.Inbox[TwinProperties]
		twin    *rpc.Pending[*rpc.Response]

		unregister func()
		log        log.Logger
	}
)

// NewClient wraps an MQTT session for the given device.
func NewClient(
	client MqttClient,
	deviceID string,
	opt ...ClientOption,
) (*Client, error) {
	if deviceID == "" {
		return nil, &errors.Error{
			Message:       "device ID must not be empty",
			Kind:          errors.ConfigurationInvalid,
			PropertyName:  "DeviceID",
			PropertyValue: deviceID,
		}
	}

	c := &Client{
		mqtt:     client,
		deviceID: deviceID,
		methods:  map[string]*inbox.Inbox[*MethodRequest]{},
		twin:     rpc.NewPending[*rpc.Response](),
	}
	c.options.Apply(opt)
	if c.options.Timeout == 0 {
		c.options.Timeout = defaultTimeout
	}
	if c.options.InboxSize == 0 {
		c.options.InboxSize = defaultInboxSize
	}
	c.desired = inbox.New[TwinProperties](c.options.InboxSize)
	for _, name := range append(c.options.Methods, "") {
		c.methodInbox(name, true)
	}
	c.log = log.Wrap(c.options.Logger)

	return c, nil
}

// DeviceID returns the device identity of the client.
func (c *Client) DeviceID() string {
	return c.deviceID
}

// Connect opens the MQTT session and subscribes to direct methods, twin
// responses and desired property patches.
func (c *Client) Connect(ctx context.Context) error {
	c.unregister = c.mqtt.RegisterMessageHandler(c.onMessage)

	if err := c.mqtt.Connect(ctx); err != nil {
		c.unregister()
		return err
	}

	for _, filter := range []string{
		methodsFilter,
		twinResponseFilter,
		twinDesiredFilter,
	} {
		if err := c.mqtt.Subscribe(ctx, filter); err != nil {
			return err
		}
	}

	c.log.Info(ctx, "hub client connected", slog.String("device_id", c.deviceID))
	return nil
}

// Shutdown closes the MQTT session. Requests still queued are discarded.
func (c *Client) Shutdown(ctx context.Context) error {
	if c.unregister != nil {
		c.unregister()
	}
	return c.mqtt.Disconnect(ctx)
}

// SendMessage sends a device-to-cloud telemetry message.
func (c *Client) SendMessage(ctx context.Context, msg *Message) error {
	opts := []mqtt.PublishOption{mqtt.WithQoS(1)}
	if msg.ContentType != "" {
		opts = append(opts, mqtt.WithContentType(msg.ContentType))
	}

	err := c.mqtt.Publish(ctx, telemetryTopic(c.deviceID, msg), msg.Payload, opts...)
	if err != nil {
		return err
	}

	c.log.Debug(ctx, "telemetry sent", slog.Int("size", len(msg.Payload)))
	return nil
}

func (c *Client) onMessage(ctx context.Context, msg *mqtt.Message) {
	switch {
	case mqtt.IsTopicFilterMatch(methodsFilter, msg.Topic):
		c.onMethodRequest(ctx, msg)

	case mqtt.IsTopicFilterMatch(twinDesiredFilter, msg.Topic):
		c.onDesiredPatch(ctx, msg)

	case mqtt.IsTopicFilterMatch(twinResponseFilter, msg.Topic):
		res, ok := rpc.ParseResponse(twinResponsePrefix, msg.Topic, msg.Payload)
		if !ok {
			c.log.Warn(ctx, &errors.Error{
				Message:       "malformed twin response topic",
				Kind:          errors.PayloadInvalid,
				PropertyName:  "Topic",
				PropertyValue: msg.Topic,
			})
			return
		}
		if !c.twin.Resolve(res.RequestID(), res) {
			c.log.Debug(ctx, "twin response with no pending request",
				slog.String("rid", res.RequestID()),
			)
		}
	}
}
