// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cartertinney/iot-device-samples/internal/rpc"
	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/protocol"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
)

// GetTwin requests the full device twin.
func (c *Client) GetTwin(ctx context.Context) (*Twin, error) {
	res, err := c.twinRequest(ctx, "get twin", twinGetTopic, nil)
	if err != nil {
		return nil, err
	}

	twin, err := protocol.Deserialize[Twin](protocol.JSON[Twin]{}, &protocol.Data{
		Payload: res.Payload,
	})
	if err != nil {
		return nil, err
	}
	if twin.Desired == nil {
		twin.Desired = TwinProperties{}
	}
	if twin.Reported == nil {
		twin.Reported = TwinProperties{}
	}
	return &twin, nil
}

// PatchTwinReportedProperties writes a patch to the reported properties,
// returning the new reported version.
func (c *Client) PatchTwinReportedProperties(
	ctx context.Context,
	patch TwinProperties,
) (int, error) {
	data, err := protocol.Serialize[TwinProperties](protocol.JSON[TwinProperties]{}, patch)
	if err != nil {
		return 0, err
	}

	res, err := c.twinRequest(ctx, "patch reported properties", twinReportedTopic, data.Payload)
	if err != nil {
		return 0, err
	}

	version, _ := strconv.Atoi(res.Query.Get("$version"))
	c.log.Debug(ctx, "reported properties patched", slog.Int("version", version))
	return version, nil
}

// ReceiveTwinDesiredPropertiesPatch blocks until the next desired property
// patch arrives. The patch includes its "$version".
func (c *Client) ReceiveTwinDesiredPropertiesPatch(
	ctx context.Context,
) (TwinProperties, error) {
	patch, err := c.desired.Receive(ctx)
	if err != nil {
		return nil, errors.Context(ctx, "receive desired properties patch")
	}
	return patch, nil
}

func (c *Client) twinRequest(
	ctx context.Context,
	operation string,
	topic string,
	payload []byte,
) (*rpc.Response, error) {
	if _, ok := ctx.Deadline(); !ok && c.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.Timeout)
		defer cancel()
	}

	rid := c.twin.Add()
	if err := c.mqtt.Publish(ctx, topic+rid, payload, mqtt.WithQoS(1)); err != nil {
		c.twin.Remove(rid)
		return nil, err
	}

	res, err := c.twin.Wait(ctx, rid)
	if err != nil {
		return nil, errors.Context(ctx, operation)
	}
	if res.Status < 200 || res.Status >= 300 {
		return nil, errors.Service(operation, res.Status, res.Payload)
	}
	return res, nil
}

func (c *Client) onDesiredPatch(ctx context.Context, msg *mqtt.Message) {
	patch, err := protocol.Deserialize[TwinProperties](protocol.JSON[TwinProperties]{}, &protocol.Data{
		Payload: msg.Payload,
	})
	if err != nil {
		c.log.Warn(ctx, err, slog.String("topic", msg.Topic))
		return
	}
	if patch == nil {
		patch = TwinProperties{}
	}

	// The topic carries the version too; prefer it when the body lacks one.
	if _, ok := patch.Version(); !ok {
		_, query, _ := strings.Cut(msg.Topic, "?")
		if values, err := rpc.ParseQuery(query); err == nil {
			if v, err := strconv.Atoi(values.Get("$version")); err == nil {
				patch[VersionProperty] = v
			}
		}
	}

	if !c.desired.Push(patch) {
		c.log.Warn(ctx, &errors.Error{
			Message: "desired properties patch dropped; inbox full",
			Kind:    errors.StateInvalid,
		})
	}
}
