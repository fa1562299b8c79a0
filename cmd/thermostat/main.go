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
	"github.com/cartertinney/iot-device-samples/display"
	"github.com/cartertinney/iot-device-samples/hub"
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

	prov, dial, err := sample.Connect(cfg, log, hub.WithMethods{"Reset"})
	check(err)

	// Single-wire humidity sensors miss a read now and then.
	climate := sensor.NewClimate()
	climate.FailureRate = 0.1

	lcd := display.NewConsole(os.Stdout, 2)
	state := device.NewState()

	controller := device.NewController(dial,
		device.WithProvisioner(prov),
		device.WithSensor(climate),
		device.WithQuit(device.QuitOnInput(os.Stdin, os.Stdout)),
		device.WithLogger(log),
		device.WithComponents{
			func(t device.Transport) device.Task {
				return device.NewTelemetryPublisher(t, climate,
					device.WithInterval(cfg.Interval(device.DefaultTelemetryInterval)),
					device.WithRetryInterval(cfg.RetryInterval(device.DefaultRetryInterval)),
					device.WithFormat(device.FormatClimate),
					device.WithDisplay(lcd),
					device.WithLogger(log),
				)
			},
			func(t device.Transport) device.Task {
				return device.NewCommandListener(t, "Reset",
					device.Reset,
					device.ResetResponse,
					device.WithDisplay(lcd),
					device.WithLogger(log),
				)
			},
			func(t device.Transport) device.Task {
				return device.NewTwinSynchronizer(t,
					device.WithProperty(device.OptimalTemperature{State: state}),
					device.WithDisplay(lcd),
					device.WithLogger(log),
				)
			},
		},
	)

	if err := controller.Run(ctx); err != nil {
		log.Error("thermostat stopped", "error", err)
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
