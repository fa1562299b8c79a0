// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package provisioning

import (
	"log/slog"
	"time"

	"github.com/cartertinney/iot-device-samples/internal/options"
	"github.com/cartertinney/iot-device-samples/mqtt"
)

type (
	// ClientOption represents a single provisioning client option.
	ClientOption interface{ client(*ClientOptions) }

	// ClientOptions are the resolved provisioning client options.
	ClientOptions struct {
		// Payload is sent with the registration request, e.g. the device's
		// model ID.
		Payload any

		// PollInterval is used between status polls when the service does
		// not send a retry-after hint.
		PollInterval time.Duration

		// Transport options, used by the credential constructors.
		WebSockets    bool
		Port          int
		Connection    mqtt.ConnectionProvider
		SessionClient []mqtt.SessionClientOption

		Logger *slog.Logger
	}

	// WithPollInterval sets the default interval between status polls.
	WithPollInterval time.Duration

	// WithWebSockets connects over MQTT-over-WebSockets on port 443.
	WithWebSockets bool

	// WithPort overrides the MQTT port (8883 by default).
	WithPort int

	withPayload       struct{ any }
	withConnection    struct{ mqtt.ConnectionProvider }
	withSessionClient []mqtt.SessionClientOption
	withLogger        struct{ *slog.Logger }
)

const defaultPollInterval = 2 * time.Second

// WithPayload attaches a custom payload to the registration request.
func WithPayload(payload any) ClientOption {
	return withPayload{payload}
}

// WithModelID sends the Plug and Play model ID as the registration payload.
func WithModelID(modelID string) ClientOption {
	return withPayload{map[string]string{"modelId": modelID}}
}

// WithConnection replaces the network connection used by the credential
// constructors.
func WithConnection(provider mqtt.ConnectionProvider) ClientOption {
	return withConnection{provider}
}

// WithSessionClientOptions passes options through to the MQTT session client
// created by the credential constructors.
func WithSessionClientOptions(opt ...mqtt.SessionClientOption) ClientOption {
	return withSessionClient(opt)
}

// WithLogger enables logging with the provided slog logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return withLogger{logger}
}

// Apply resolves the provided list of options.
func (o *ClientOptions) Apply(opts []ClientOption, rest ...ClientOption) {
	for opt := range options.Apply[ClientOption](opts, rest...) {
		opt.client(o)
	}
}

func (o *ClientOptions) client(opt *ClientOptions) {
	if o != nil {
		*opt = *o
	}
}

func (o WithPollInterval) client(opt *ClientOptions) {
	opt.PollInterval = time.Duration(o)
}

func (o WithWebSockets) client(opt *ClientOptions) {
	opt.WebSockets = bool(o)
}

func (o WithPort) client(opt *ClientOptions) {
	opt.Port = int(o)
}

func (o withPayload) client(opt *ClientOptions) {
	opt.Payload = o.any
}

func (o withConnection) client(opt *ClientOptions) {
	opt.Connection = o.ConnectionProvider
}

func (o withSessionClient) client(opt *ClientOptions) {
	opt.SessionClient = append(opt.SessionClient, o...)
}

func (o withLogger) client(opt *ClientOptions) {
	opt.Logger = o.Logger
}
