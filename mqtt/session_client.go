// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"sync"

	"github.com/cartertinney/iot-device-samples/internal/log"
	"github.com/cartertinney/iot-device-samples/mqtt/retry"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
)

type (
	// SessionClient implements an MQTT v5 session client with QoS 0 and QoS 1
	// support. It connects once; a lost connection surfaces as errors from
	// subsequent operations rather than being re-established.
	SessionClient struct {
		mu     sync.Mutex
		state  ClientState
		client *paho.Client

		handlerMu   sync.RWMutex
		handlers    map[uint64]MessageHandler
		nextHandler uint64

		// Context passed to message handlers; cancelled on disconnect.
		ctx    context.Context
		cancel context.CancelFunc

		connectionProvider ConnectionProvider
		options            SessionClientOptions

		log logger
	}

	// Message represents a received PUBLISH.
	Message struct {
		Topic   string
		Payload []byte
		PublishOptions
	}

	// MessageHandler is a user-defined callback for received messages. It is
	// called synchronously from the network goroutine and must not block.
	MessageHandler func(context.Context, *Message)
)

// NewSessionClient constructs a new session client with user options.
func NewSessionClient(
	connectionProvider ConnectionProvider,
	opt ...SessionClientOption,
) *SessionClient {
	client := &SessionClient{
		connectionProvider: connectionProvider,
		handlers:           map[uint64]MessageHandler{},
	}
	client.ctx, client.cancel = context.WithCancel(context.Background())

	client.options.Apply(opt)

	if client.options.ClientID == "" {
		client.options.ClientID = uuid.NewString()
	}

	if client.options.KeepAlive == 0 {
		client.options.KeepAlive = 60
	}

	if client.options.ConnectionRetry == nil {
		client.options.ConnectionRetry = &retry.ExponentialBackoff{
			MaxAttempts: maxInitialConnectAttempts,
			Logger:      client.options.Logger,
		}
	}

	client.log.Logger = log.Wrap(client.options.Logger)

	return client
}

// ID returns the MQTT client ID for this session client.
func (c *SessionClient) ID() string {
	return c.options.ClientID
}

// RegisterMessageHandler registers a handler that is called for every
// received message, returning a function to remove it.
func (c *SessionClient) RegisterMessageHandler(handler MessageHandler) func() {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()

	id := c.nextHandler
	c.nextHandler++
	c.handlers[id] = handler

	return func() {
		c.handlerMu.Lock()
		defer c.handlerMu.Unlock()
		delete(c.handlers, id)
	}
}

// The paho client, if the session is connected.
func (c *SessionClient) connected() (*paho.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Started || c.client == nil {
		return nil, &ClientStateError{c.state}
	}
	return c.client, nil
}
