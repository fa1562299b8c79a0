// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"log/slog"
	"time"

	"github.com/cartertinney/iot-device-samples/internal/options"
	"github.com/cartertinney/iot-device-samples/mqtt/retry"
)

type (
	// SessionClientOption represents a single option for the session client.
	SessionClientOption interface{ sessionClient(*SessionClientOptions) }

	// SessionClientOptions are the resolved options for the session client.
	SessionClientOptions struct {
		ClientID          string
		Username          UsernameProvider
		Password          PasswordProvider
		KeepAlive         uint16
		ConnectionRetry   retry.Policy
		ConnectionTimeout time.Duration
		Logger            *slog.Logger
	}

	// PublishOption represents a single option for a PUBLISH.
	PublishOption interface{ publish(*PublishOptions) }

	// PublishOptions are the resolved options for a PUBLISH.
	PublishOptions struct {
		QoS            byte
		Retain         bool
		ContentType    string
		UserProperties map[string]string
	}

	// SubscribeOption represents a single option for a SUBSCRIBE.
	SubscribeOption interface{ subscribe(*SubscribeOptions) }

	// SubscribeOptions are the resolved options for a SUBSCRIBE.
	SubscribeOptions struct {
		QoS byte
	}

	// WithClientID sets the MQTT client ID.
	WithClientID string

	// WithUsername sets the provider for the MQTT username.
	WithUsername UsernameProvider

	// WithPassword sets the provider for the MQTT password.
	WithPassword PasswordProvider

	// WithKeepAlive sets the MQTT keep-alive in seconds.
	WithKeepAlive uint16

	// WithConnectionTimeout bounds each individual connection attempt.
	WithConnectionTimeout time.Duration

	// WithQoS sets the QoS of a PUBLISH or SUBSCRIBE. Defaults to 1.
	WithQoS byte

	// WithRetain sets the retain flag of a PUBLISH.
	WithRetain bool

	// WithContentType sets the content type property of a PUBLISH.
	WithContentType string

	// WithUserProperties adds user properties to a PUBLISH.
	WithUserProperties map[string]string

	withConnectionRetry struct{ retry.Policy }
	withLogger          struct{ *slog.Logger }
)

// WithConnectionRetry sets the retry policy for the initial connection.
func WithConnectionRetry(policy retry.Policy) SessionClientOption {
	return withConnectionRetry{policy}
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) SessionClientOption {
	return withLogger{logger}
}

// Apply resolves the provided list of options.
func (o *SessionClientOptions) Apply(
	opts []SessionClientOption,
	rest ...SessionClientOption,
) {
	for opt := range options.Apply[SessionClientOption](opts, rest...) {
		opt.sessionClient(o)
	}
}

// Apply resolves the provided list of options.
func (o *PublishOptions) Apply(
	opts []PublishOption,
	rest ...PublishOption,
) {
	for opt := range options.Apply[PublishOption](opts, rest...) {
		opt.publish(o)
	}
}

// Apply resolves the provided list of options.
func (o *SubscribeOptions) Apply(
	opts []SubscribeOption,
	rest ...SubscribeOption,
) {
	for opt := range options.Apply[SubscribeOption](opts, rest...) {
		opt.subscribe(o)
	}
}

func (o *SessionClientOptions) sessionClient(opt *SessionClientOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithClientID) sessionClient(opt *SessionClientOptions) {
	opt.ClientID = string(o)
}

func (o WithUsername) sessionClient(opt *SessionClientOptions) {
	opt.Username = UsernameProvider(o)
}

func (o WithPassword) sessionClient(opt *SessionClientOptions) {
	opt.Password = PasswordProvider(o)
}

func (o WithKeepAlive) sessionClient(opt *SessionClientOptions) {
	opt.KeepAlive = uint16(o)
}

func (o WithConnectionTimeout) sessionClient(opt *SessionClientOptions) {
	opt.ConnectionTimeout = time.Duration(o)
}

func (o withConnectionRetry) sessionClient(opt *SessionClientOptions) {
	opt.ConnectionRetry = o.Policy
}

func (o withLogger) sessionClient(opt *SessionClientOptions) {
	opt.Logger = o.Logger
}

func (o WithQoS) publish(opt *PublishOptions) {
	opt.QoS = byte(o)
}

func (o WithQoS) subscribe(opt *SubscribeOptions) {
	opt.QoS = byte(o)
}

func (o WithRetain) publish(opt *PublishOptions) {
	opt.Retain = bool(o)
}

func (o WithContentType) publish(opt *PublishOptions) {
	opt.ContentType = string(o)
}

func (o WithUserProperties) publish(opt *PublishOptions) {
	if opt.UserProperties == nil {
		opt.UserProperties = make(map[string]string, len(o))
	}
	for k, v := range o {
		opt.UserProperties[k] = v
	}
}
