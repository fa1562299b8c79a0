// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"

	"github.com/eclipse/paho.golang/paho"
)

// Subscribe sends a SUBSCRIBE packet for a single topic filter. Received
// messages are delivered to every registered message handler.
func (c *SessionClient) Subscribe(
	ctx context.Context,
	topicFilter string,
	opt ...SubscribeOption,
) error {
	client, err := c.connected()
	if err != nil {
		return err
	}

	opts := SubscribeOptions{QoS: 1}
	opts.Apply(opt)

	if opts.QoS >= 2 {
		return &InvalidArgumentError{Name: "QoS", Value: opts.QoS}
	}

	sub := &paho.Subscribe{
		Subscriptions: []paho.SubscribeOptions{{
			Topic: topicFilter,
			QoS:   opts.QoS,
		}},
	}

	c.log.Packet(ctx, "subscribe", sub)
	suback, err := client.Subscribe(ctx, sub)
	if suback != nil {
		c.log.Packet(ctx, "suback", suback)
		if len(suback.Reasons) > 0 && suback.Reasons[0] >= 0x80 {
			return &SubackError{ReasonCode: suback.Reasons[0]}
		}
	}
	if err != nil {
		return &ConnectionError{Op: "subscribe", Err: err}
	}
	return nil
}

func (c *SessionClient) onPublishReceived(
	received paho.PublishReceived,
) (bool, error) {
	pub := received.Packet
	c.log.Packet(c.ctx, "publish received", pub)

	msg := &Message{
		Topic:   pub.Topic,
		Payload: pub.Payload,
		PublishOptions: PublishOptions{
			QoS:    pub.QoS,
			Retain: pub.Retain,
		},
	}
	if pub.Properties != nil {
		msg.ContentType = pub.Properties.ContentType
		msg.UserProperties = userPropertiesToMap(pub.Properties.User)
	}

	c.handlerMu.RLock()
	handlers := make([]MessageHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.handlerMu.RUnlock()

	for _, h := range handlers {
		h(c.ctx, msg)
	}
	return true, nil
}
