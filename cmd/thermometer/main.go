// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cartertinney/iot-device-samples/config"
	"github.com/cartertinney/iot-device-samples/device"
	"github.com/cartertinney/iot-device-samples/display"
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

	var source device.Sensor = sensor.NewHost(cfg.SensorKey)
	if cfg.SimulateSensor {
		source = sensor.NewEnvironment()
	}
	defer source.Close()

	quit := device.QuitOnInput(os.Stdin, os.Stdout)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	publisher := device.NewTelemetryPublisher(nil, source,
		device.WithInterval(cfg.Interval(time.Second)),
		device.WithRetryInterval(cfg.RetryInterval(device.DefaultRetryInterval)),
		device.WithDisplay(display.NewConsole(os.Stdout, 1)),
		device.WithFormat(func(r sensor.Reading) string {
			return fmt.Sprintf("Temp: %.1f°C", r.Values[sensor.Temperature])
		}),
		device.WithLogger(log),
	)

	if err := publisher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("thermometer stopped", "error", err)
		os.Exit(1)
	}
}

func must[T any](t T, e error) T {
	if e != nil {
		panic(e)
	}
	return t
}
