// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package provisioning

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/cartertinney/iot-device-samples/internal/log"
	"github.com/cartertinney/iot-device-samples/internal/rpc"
	"github.com/cartertinney/iot-device-samples/internal/wallclock"
	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/protocol"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
)

const (
	responsePrefix = "$dps/registrations/res/"
	responseFilter = responsePrefix + "#"
	registerTopic  = "$dps/registrations/PUT/iotdps-register/?$rid="
	statusTopic    = "$dps/registrations/GET/iotdps-get-operationstatus/?$rid="

	statusTooManyRequests = 429
)

type (
	// MqttClient is the subset of the MQTT session client used by the
	// provisioning client.
	MqttClient interface {
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

	// Client registers a device with the Device Provisioning Service over
	// its own short-lived MQTT session.
	Client struct {
		mqtt           MqttClient
		registrationID string
		options        ClientOptions
		pending        *rpc.Pending[*rpc.Response]
		log            log.Logger
	}
)

// NewClient creates a provisioning client for a registration ID.
func NewClient(
	client MqttClient,
	registrationID string,
	opt ...ClientOption,
) (*Client, error) {
	if registrationID == "" {
		return nil, &errors.Error{
			Message:      "registration ID must not be empty",
			Kind:         errors.ConfigurationInvalid,
			PropertyName: "RegistrationID",
		}
	}

	c := &Client{
		mqtt:           client,
		registrationID: registrationID,
		pending:        rpc.NewPending[*rpc.Response](),
	}
	c.options.Apply(opt)
	if c.options.PollInterval <= 0 {
		c.options.PollInterval = defaultPollInterval
	}
	c.log = log.Wrap(c.options.Logger)
	return c, nil
}

// Register connects to the provisioning service, submits the registration
// and polls until the operation leaves the assigning state. The returned
// result may carry a status other than assigned; callers decide whether that
// is fatal.
func (c *Client) Register(ctx context.Context) (*RegistrationResult, error) {
	defer c.mqtt.RegisterMessageHandler(c.onMessage)()

	if err := c.mqtt.Connect(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := c.mqtt.Disconnect(context.WithoutCancel(ctx)); err != nil {
			c.log.Warn(ctx, err)
		}
	}()

	if err := c.mqtt.Subscribe(ctx, responseFilter); err != nil {
		return nil, err
	}

	body, err := protocol.Serialize[registrationRequest](
		protocol.JSON[registrationRequest]{},
		registrationRequest{
			RegistrationID: c.registrationID,
			Payload:        c.options.Payload,
		},
	)
	if err != nil {
		return nil, err
	}

	topic := func(rid string) string { return registerTopic + rid }
	payload := body.Payload
	for {
		res, err := c.request(ctx, topic, payload)
		if err != nil {
			return nil, err
		}

		switch {
		case res.Status == statusTooManyRequests:
			// Throttled; resend the same request.

		case res.Status >= 300:
			return nil, errors.Service("register", res.Status, res.Payload)

		default:
			result, err := protocol.Deserialize[RegistrationResult](
				protocol.JSON[RegistrationResult]{},
				&protocol.Data{Payload: res.Payload},
			)
			if err != nil {
				return nil, err
			}

			c.log.Info(ctx, "registration status",
				slog.String("registration_id", c.registrationID),
				slog.String("status", result.Status),
			)

			if result.Status != StatusAssigning &&
				result.Status != StatusUnassigned {
				return &result, nil
			}
			if result.OperationID == "" {
				return nil, &errors.Error{
					Message:      "registration pending without an operation ID",
					Kind:         errors.PayloadInvalid,
					PropertyName: "operationId",
				}
			}

			operationID := url.QueryEscape(result.OperationID)
			topic = func(rid string) string {
				return statusTopic + rid + "&operationId=" + operationID
			}
			payload = nil
		}

		if err := wallclock.Sleep(ctx, c.retryAfter(res)); err != nil {
			return nil, errors.Context(ctx, "register")
		}
	}
}

func (c *Client) request(
	ctx context.Context,
	topic func(rid string) string,
	payload []byte,
) (*rpc.Response, error) {
	rid := c.pending.Add()
	if err := c.mqtt.Publish(ctx, topic(rid), payload, mqtt.WithQoS(1)); err != nil {
		c.pending.Remove(rid)
		return nil, err
	}

	res, err := c.pending.Wait(ctx, rid)
	if err != nil {
		return nil, errors.Context(ctx, "register")
	}
	return res, nil
}

// The service hints the polling interval in seconds.
func (c *Client) retryAfter(res *rpc.Response) time.Duration {
	if s, err := strconv.Atoi(res.Query.Get("retry-after")); err == nil && s > 0 {
		return time.Duration(s) * time.Second
	}
	return c.options.PollInterval
}

func (c *Client) onMessage(ctx context.Context, msg *mqtt.Message) {
	if !mqtt.IsTopicFilterMatch(responseFilter, msg.Topic) {
		return
	}
	res, ok := rpc.ParseResponse(responsePrefix, msg.Topic, msg.Payload)
	if !ok {
		return
	}
	if !c.pending.Resolve(res.RequestID(), res) {
		c.log.Debug(ctx, "provisioning response with no pending request",
			slog.String("rid", res.RequestID()),
		)
	}
}
