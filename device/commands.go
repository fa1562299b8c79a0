// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package device

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cartertinney/iot-device-samples/hub"
	"github.com/cartertinney/iot-device-samples/internal/log"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
	"github.com/goccy/go-json"
)

type (
	// CommandHandler acts on a command. The payload is never nil.
	CommandHandler func(
		ctx context.Context,
		payload map[string]any,
		display Display,
	) error

	// ResponseBuilder produces the response payload for a handled command.
	ResponseBuilder func(payload map[string]any) any

	// CommandListener serves one direct method.
	CommandListener struct {
		transport MethodTransport
		name      string
		handler   CommandHandler
		respond   ResponseBuilder
		options   CommandOptions
		log       log.Logger
	}
)

// NewCommandListener creates a listener for the named method. An empty name
// serves every method without a dedicated listener.
func NewCommandListener(
	transport MethodTransport,
	name string,
	handler CommandHandler,
	respond ResponseBuilder,
	opt ...CommandOption,
) *CommandListener {
	l := &CommandListener{
		transport: transport,
		name:      name,
		handler:   handler,
		respond:   respond,
	}
	l.options.Apply(opt)
	if l.options.Display == nil {
		l.options.Display = nopDisplay{}
	}
	l.log = log.Wrap(l.options.Logger)
	return l
}

// Run serves requests until the context is cancelled. A handler error stops
// the listener and is returned; failing to send a response does not.
func (l *CommandListener) Run(ctx context.Context) error {
	for {
		req, err := l.transport.ReceiveMethodRequest(ctx, l.name)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := l.handle(ctx, req); err != nil {
			return err
		}
	}
}

func (l *CommandListener) handle(ctx context.Context, req *hub.MethodRequest) error {
	if req.Payload == nil {
		req.Payload = map[string]any{}
	}
	l.log.Info(ctx, "command received",
		slog.String("name", req.Name),
		slog.String("request_id", req.RequestID))

	if l.handler != nil {
		if err := l.handler(ctx, req.Payload, l.options.Display); err != nil {
			return err
		}
	}

	res := &hub.MethodResponse{RequestID: req.RequestID, Status: StatusOK}
	if l.respond != nil {
		res.Payload = l.respond(req.Payload)
	}

	if err := l.transport.SendMethodResponse(ctx, res); err != nil {
		l.log.Warn(ctx, err, slog.String("name", req.Name))
	}
	return nil
}

// Reset clears the display and shows the command and its payload on the
// second line.
func Reset(_ context.Context, payload map[string]any, display Display) error {
	values, err := json.Marshal(payload)
	if err != nil {
		return &errors.Error{
			Message:     "cannot render reset payload",
			Kind:        errors.PayloadInvalid,
			NestedError: err,
		}
	}
	display.Clear()
	display.Show(2, fmt.Sprintf("Cmd: Reset(%s)", values))
	return nil
}

// ResetResponse acknowledges a reset.
func ResetResponse(map[string]any) any {
	return map[string]any{"result": true, "data": "reset succeeded"}
}
