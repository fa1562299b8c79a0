// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub

import (
	"log/slog"
	"time"

	"github.com/cartertinney/iot-device-samples/internal/options"
	"github.com/cartertinney/iot-device-samples/mqtt"
)

type (
	// ClientOption represents a single hub client option.
	ClientOption interface{ client(*ClientOptions) }

	// ClientOptions are the resolved hub client options.
	ClientOptions struct {
		// Timeout bounds twin requests when the caller's context does not.
		Timeout time.Duration

		// InboxSize bounds undelivered method requests and desired patches;
		// further messages are dropped and logged.
		InboxSize int

		// Methods are the direct method names with dedicated receivers.
		// Requests for them are held until received even if they arrive
		// before the receiver starts.
		Methods []string

		// Transport options, used by the credential constructors.
		ModelID       string
		WebSockets    bool
		Port          int
		Connection    mqtt.ConnectionProvider
		SessionClient []mqtt.SessionClientOption

		Logger *slog.Logger
	}

	// WithTimeout sets the timeout for twin requests.
	WithTimeout time.Duration

	// WithInboxSize sets the maximum number of queued incoming requests.
	WithInboxSize int

	// WithMethods declares method names that have dedicated receivers.
	WithMethods []string

	// WithModelID announces the device's Plug and Play model ID.
	WithModelID string

	// WithWebSockets connects over MQTT-over-WebSockets on port 443.
	WithWebSockets bool

	// WithPort overrides the MQTT port (8883 by default).
	WithPort int

	withConnection    struct{ mqtt.ConnectionProvider }
	withSessionClient []mqtt.SessionClientOption
	withLogger        struct{ *slog.Logger }
)

const (
	defaultTimeout   = 30 * time.Second
	defaultInboxSize = 64
)

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

func (o WithTimeout) client(opt *ClientOptions) {
	opt.Timeout = time.Duration(o)
}

func (o WithInboxSize) client(opt *ClientOptions) {
	opt.InboxSize = int(o)
}

func (o WithMethods) client(opt *ClientOptions) {
	opt.Methods = append(opt.Methods, o...)
}

func (o WithModelID) client(opt *ClientOptions) {
	opt.ModelID = string(o)
}

func (o WithWebSockets) client(opt *ClientOptions) {
	opt.WebSockets = bool(o)
}

func (o WithPort) client(opt *ClientOptions) {
	opt.Port = int(o)
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
