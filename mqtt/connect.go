// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"

	"github.com/eclipse/paho.golang/paho"
)

const maxInitialConnectAttempts = 5

// Connect establishes the connection, retrying according to the connection
// retry policy. It may only be called once.
func (c *SessionClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != NotStarted {
		defer c.mu.Unlock()
		return &ClientStateError{c.state}
	}
	c.state = Started
	c.mu.Unlock()

	err := c.options.ConnectionRetry.Start(ctx, "connect", c.attemptConnect)
	if err != nil {
		c.mu.Lock()
		c.state = ShutDown
		c.mu.Unlock()
		c.cancel()
		return err
	}

	c.log.Info(ctx, "connected")
	return nil
}

// Disconnect sends a DISCONNECT packet and closes the network connection.
func (c *SessionClient) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	client, state := c.client, c.state
	c.state = ShutDown
	c.client = nil
	c.mu.Unlock()

	if state != Started || client == nil {
		return &ClientStateError{state}
	}
	defer c.cancel()

	packet := &paho.Disconnect{ReasonCode: disconnectNormal}
	c.log.Packet(ctx, "disconnect", packet)
	if err := client.Disconnect(packet); err != nil {
		return &ConnectionError{Op: "disconnect", Err: err}
	}

	c.log.Info(ctx, "disconnected")
	return nil
}

// A single connection attempt, reporting whether a failure is retryable.
func (c *SessionClient) attemptConnect(ctx context.Context) (bool, error) {
	if c.options.ConnectionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.options.ConnectionTimeout)
		defer cancel()
	}

	packet := &paho.Connect{
		ClientID:   c.options.ClientID,
		CleanStart: true,
		KeepAlive:  c.options.KeepAlive,
	}

	if c.options.Username != nil {
		username, err := c.options.Username(ctx)
		if err != nil {
			return false, &InvalidArgumentError{Name: "username", Err: err}
		}
		packet.Username = username
		packet.UsernameFlag = true
	}

	if c.options.Password != nil {
		password, err := c.options.Password(ctx)
		if err != nil {
			return false, &InvalidArgumentError{Name: "password", Err: err}
		}
		packet.Password = password
		packet.PasswordFlag = true
	}

	conn, err := c.connectionProvider(ctx)
	if err != nil {
		return true, err
	}

	client := paho.NewClient(paho.ClientConfig{
		ClientID: c.options.ClientID,
		Conn:     conn,
		OnPublishReceived: []func(paho.PublishReceived) (bool, error){
			c.onPublishReceived,
		},
		OnClientError:      c.onClientError,
		OnServerDisconnect: c.onServerDisconnect,
	})

	c.log.Packet(ctx, "connect", packet)
	connack, err := client.Connect(ctx, packet)
	if connack != nil {
		c.log.Packet(ctx, "connack", connack)
	}
	if err != nil {
		_ = conn.Close()
		if connack != nil && connack.ReasonCode >= 0x80 {
			return connackError(connack.ReasonCode)
		}
		return true, &ConnectionError{Op: "connect", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Started {
		// Disconnected while the attempt was in flight.
		_ = client.Disconnect(&paho.Disconnect{ReasonCode: disconnectNormal})
		return false, &ClientStateError{c.state}
	}
	c.client = client
	return false, nil
}

func (c *SessionClient) onClientError(err error) {
	c.log.Err(c.ctx, &ConnectionError{Op: "connection", Err: err})
}

func (c *SessionClient) onServerDisconnect(packet *paho.Disconnect) {
	c.log.Packet(c.ctx, "server disconnect", packet)
}

const disconnectNormal byte = 0x00
