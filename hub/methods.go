// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/cartertinney/iot-device-samples/internal/inbox"
	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/protocol"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
)

// StatusBadRequest is returned automatically for requests whose payload is
// not a JSON object.
const StatusBadRequest = 400

// ReceiveMethodRequest blocks until a direct method request with the given
// name arrives. An empty name receives every request that no named receiver
// has claimed.
func (c *Client) ReceiveMethodRequest(
	ctx context.Context,
	name string,
) (*MethodRequest, error) {
	req, err := c.methodInbox(name, true).Receive(ctx)
	if err != nil {
		return nil, errors.Context(ctx, "receive method request")
	}
	return req, nil
}

// SendMethodResponse sends the single response to a method request.
func (c *Client) SendMethodResponse(
	ctx context.Context,
	res *MethodResponse,
) error {
	data, err := protocol.Serialize[any](protocol.JSON[any]{}, res.Payload)
	if err != nil {
		return err
	}

	return c.mqtt.Publish(
		ctx,
		methodResponse(res.Status, res.RequestID),
		data.Payload,
		mqtt.WithQoS(1),
		mqtt.WithContentType(data.ContentType),
	)
}

// methodInbox returns the inbox for a method name, creating it when asked.
func (c *Client) methodInbox(
	name string,
	create bool,
) *inbox.Inbox[*MethodRequest] {
	c.methodMu.Lock()
	defer c.methodMu.Unlock()

	in, ok := c.methods[name]
	if !ok && create {
		in = inbox.New[*MethodRequest](c.options.InboxSize)
		c.methods[name] = in
	}
	return in
}

// Requests go to the receiver for their name if one has been registered or
// declared with WithMethods, and to the catch-all receiver otherwise.
func (c *Client) route(name string) *inbox.Inbox[*MethodRequest] {
	if in := c.methodInbox(name, false); in != nil {
		return in
	}
	return c.methodInbox("", true)
}

func (c *Client) onMethodRequest(ctx context.Context, msg *mqtt.Message) {
	name, rid, ok := parseMethodTopic(msg.Topic)
	if !ok {
		c.log.Warn(ctx, &errors.Error{
			Message:       "malformed method request topic",
			Kind:          errors.PayloadInvalid,
			PropertyName:  "Topic",
			PropertyValue: msg.Topic,
		})
		return
	}

	payload, err := decodeMethodPayload(msg.Payload)
	if err != nil {
		c.log.Warn(ctx, err, slog.String("method", name), slog.String("rid", rid))
		// Responding waits for a PUBACK, which must not happen on the
		// network goroutine.
		go c.reject(rid, err)
		return
	}

	req := &MethodRequest{Name: name, RequestID: rid, Payload: payload}
	if !c.route(name).Push(req) {
		c.log.Warn(ctx, &errors.Error{
			Message:       "method request dropped; inbox full",
			Kind:          errors.StateInvalid,
			PropertyName:  "Method",
			PropertyValue: name,
		})
	}
}

func (c *Client) reject(rid string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.options.Timeout)
	defer cancel()

	err := c.SendMethodResponse(ctx, &MethodResponse{
		RequestID: rid,
		Status:    StatusBadRequest,
		Payload:   map[string]any{"error": cause.Error()},
	})
	if err != nil {
		c.log.Warn(ctx, err, slog.String("rid", rid))
	}
}

func decodeMethodPayload(payload []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return map[string]any{}, nil
	}

	value, err := protocol.Deserialize[any](protocol.JSON[any]{}, &protocol.Data{
		Payload: payload,
	})
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	default:
		return nil, &errors.Error{
			Message:       "method payload is not a JSON object",
			Kind:          errors.PayloadInvalid,
			PropertyName:  "Payload",
			PropertyValue: string(payload),
		}
	}
}
