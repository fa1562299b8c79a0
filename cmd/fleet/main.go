// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

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

	speed := sensor.NewSpeed()

	controller := device.NewController(dial,
		device.WithProvisioner(prov),
		device.WithSensor(speed),
		device.WithQuit(device.QuitOnInput(os.Stdin, os.Stdout)),
		device.WithLogger(log),
		device.WithComponents{
			func(t device.Transport) device.Task {
				return device.NewTelemetryPublisher(t, speed,
					device.WithInterval(cfg.Interval(2*time.Second)),
					device.WithLogger(log),
				)
			},
			func(t device.Transport) device.Task {
				return device.NewTwinSynchronizer(t, device.WithLogger(log))
			},
		},
	)

	if err := controller.Run(ctx); err != nil {
		log.Error("fleet device stopped", "error", err)
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
