// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cartertinney/iot-device-samples/config"
	"github.com/cartertinney/iot-device-samples/device"
	"github.com/cartertinney/iot-device-samples/internal/sample"
	"github.com/cartertinney/iot-device-samples/sensor"
)

func main() {
	cfg := must(config.Load())
	log := sample.Logger(cfg.Level())

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	prov, dial, err := sample.Connect(cfg, log)
	check(err)

	climate := sensor.NewEnvironment()

	controller := device.NewController(dial,
		device.WithProvisioner(prov),
		device.WithSensor(climate),
		device.WithQuit(device.QuitOnInput(os.Stdin, os.Stdout)),
		device.WithLogger(log),
		device.WithComponents{
			func(t device.Transport) device.Task {
				return device.NewTelemetryPublisher(t, climate,
					device.WithInterval(cfg.Interval(device.DefaultTelemetryInterval)),
					device.WithMessageProperties{"temperatureAlert": "false"},
					device.WithLogger(log),
				)
			},
			// Any method is acknowledged with its own payload.
			func(t device.Transport) device.Task {
				return device.NewCommandListener(t, "", nil,
					func(payload map[string]any) any { return payload },
					device.WithLogger(log),
				)
			},
		},
	)

	if err := controller.Run(ctx); err != nil {
		log.Error("simulated device stopped", "error", err)
		os.Exit(1)
	}
}

func check(e error) {
	if e != nil {
		panic(e)
	}
}

func must[T any](t T, e error) T {
	check(e)
	return t
}
