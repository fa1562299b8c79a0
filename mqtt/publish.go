// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"

	"github.com/eclipse/paho.golang/paho"
)

// Publish sends a PUBLISH packet, waiting for the PUBACK when the QoS is 1.
func (c *SessionClient) Publish(
	ctx context.Context,
	topic string,
	payload []byte,
	opt ...PublishOption,
) error {
	client, err := c.connected()
	if err != nil {
		return err
	}

	opts := PublishOptions{QoS: 1}
	opts.Apply(opt)

	if opts.QoS >= 2 {
		return &InvalidArgumentError{Name: "QoS", Value: opts.QoS}
	}
	if topic == "" {
		return &InvalidArgumentError{Name: "topic", Value: `""`}
	}

	pub := &paho.Publish{
		QoS:     opts.QoS,
		Retain:  opts.Retain,
		Topic:   topic,
		Payload: payload,
		Properties: &paho.PublishProperties{
			ContentType: opts.ContentType,
			User:        mapToUserProperties(opts.UserProperties),
		},
	}

	c.log.Packet(ctx, "publish", pub)
	if _, err := client.Publish(ctx, pub); err != nil {
		return &ConnectionError{Op: "publish", Err: err}
	}
	return nil
}

func mapToUserProperties(m map[string]string) paho.UserProperties {
	if len(m) == 0 {
		return nil
	}
	ups := make(paho.UserProperties, 0, len(m))
	for k, v := range m {
		ups = append(ups, paho.UserProperty{Key: k, Value: v})
	}
	return ups
}

func userPropertiesToMap(ups paho.UserProperties) map[string]string {
	if len(ups) == 0 {
		return nil
	}
	m := make(map[string]string, len(ups))
	for _, up := range ups {
		m[up.Key] = up.Value
	}
	return m
}
