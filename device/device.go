// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package device runs the device side of a hub connection: it publishes
// sensor telemetry, answers direct methods and keeps writable twin
// properties in sync, under a single lifecycle.
package device

import (
	"context"

	"github.com/cartertinney/iot-device-samples/hub"
	"github.com/cartertinney/iot-device-samples/provisioning"
	"github.com/cartertinney/iot-device-samples/sensor"
)

type (
	// MessageSender submits telemetry.
	MessageSender interface {
		SendMessage(ctx context.Context, msg *hub.Message) error
	}

	// MethodTransport receives direct method requests and sends their
	// responses.
	MethodTransport interface {
		ReceiveMethodRequest(
			ctx context.Context,
			name string,
		) (*hub.MethodRequest, error)
		SendMethodResponse(ctx context.Context, res *hub.MethodResponse) error
	}

	// TwinTransport reads the twin and exchanges property patches.
	TwinTransport interface {
		GetTwin(ctx context.Context) (*hub.Twin, error)
		ReceiveTwinDesiredPropertiesPatch(
			ctx context.Context,
		) (hub.TwinProperties, error)
		PatchTwinReportedProperties(
			ctx context.Context,
			patch hub.TwinProperties,
		) (int, error)
	}

	// Transport is an open hub session; *hub.Client implements it.
	Transport interface {
		MessageSender
		MethodTransport
		TwinTransport
		Connect(ctx context.Context) error
		Shutdown(ctx context.Context) error
	}

	// Sensor produces readings. Read returns sensor.ErrNotReady for failures
	// that may clear on retry.
	Sensor interface {
		Read(ctx context.Context) (sensor.Reading, error)
		Close() error
	}

	// Display renders short strings on numbered lines.
	Display interface {
		Show(line int, text string)
		Clear()
	}

	// Provisioner registers the device and reports where it was assigned.
	Provisioner interface {
		Register(ctx context.Context) (*provisioning.RegistrationResult, error)
	}

	// Dialer creates the hub transport. The registration result is nil when
	// no provisioner is configured.
	Dialer func(
		ctx context.Context,
		reg *provisioning.RegistrationResult,
	) (Transport, error)

	// Task is a long-running unit of device work. Run returns nil when its
	// context is cancelled.
	Task interface {
		Run(ctx context.Context) error
	}

	// Component builds a task once the transport is available.
	Component func(Transport) Task

	nopDisplay struct{}
)

var (
	_ Transport   = (*hub.Client)(nil)
	_ Provisioner = (*provisioning.Client)(nil)
)

// StatusOK is the status of every method response.
const StatusOK = 200

func (nopDisplay) Show(int, string) {}

func (nopDisplay) Clear() {}
