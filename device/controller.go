// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/cartertinney/iot-device-samples/internal/log"
	"github.com/cartertinney/iot-device-samples/provisioning"
	"golang.org/x/sync/errgroup"
)

type (
	// Phase is a stage of the controller lifecycle.
	Phase int32

	// Controller provisions the device, connects it and runs its tasks until
	// told to quit.
	Controller struct {
		dial    Dialer
		options ControllerOptions
		log     log.Logger
		phase   atomic.Int32
	}

	// ProvisioningError is returned when the provisioning service does not
	// assign the device to a hub.
	ProvisioningError struct {
		Result *provisioning.RegistrationResult
	}

	// initializer is implemented by tasks that must finish setting up before
	// any task starts running.
	initializer interface {
		Initialize(ctx context.Context) error
	}
)

// Lifecycle phases, in order.
const (
	Unprovisioned Phase = iota
	Provisioning
	Connected
	Running
	ShuttingDown
	Closed
)

func (p Phase) String() string {
	switch p {
	case Unprovisioned:
		return "unprovisioned"
	case Provisioning:
		return "provisioning"
	case Connected:
		return "connected"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting down"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

func (e *ProvisioningError) Error() string {
	msg := fmt.Sprintf("device provisioning failed: status %q", e.Result.Status)
	if s := e.Result.RegistrationState; s != nil && s.ErrorMessage != "" {
		msg = fmt.Sprintf("%s: %s", msg, s.ErrorMessage)
	}
	return msg
}

// NewController creates a controller that opens its transport with dial.
func NewController(dial Dialer, opt ...ControllerOption) *Controller {
	c := &Controller{dial: dial}
	c.options.Apply(opt)
	c.log = log.Wrap(c.options.Logger)
	return c
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	return Phase(c.phase.Load())
}

func (c *Controller) enter(ctx context.Context, p Phase) {
	c.phase.Store(int32(p))
	c.log.Debug(ctx, "device lifecycle", slog.String("phase", p.String()))
}

// Run drives the whole lifecycle. It returns once the quit signal fires or
// the context is cancelled (nil), or when any phase or task fails. In-flight
// work is abandoned on quit; when Run returns no task is running and the
// transport is shut down.
func (c *Controller) Run(ctx context.Context) (err error) {
	var transport Transport
	defer c.enter(ctx, Closed)
	defer func() {
		c.closeSensor(ctx)
		if transport == nil {
			return
		}
		if e := transport.Shutdown(context.WithoutCancel(ctx)); e != nil {
			c.log.Warn(ctx, e)
		}
	}()

	var reg *provisioning.RegistrationResult
	if c.options.Provisioner != nil {
		c.enter(ctx, Provisioning)
		reg, err = c.options.Provisioner.Register(ctx)
		if err != nil {
			return err
		}
		if !reg.Assigned() {
			return &ProvisioningError{Result: reg}
		}
		c.log.Info(ctx, "device provisioned",
			slog.String("hub", reg.RegistrationState.AssignedHub),
			slog.String("device_id", reg.RegistrationState.DeviceID))
	}

	transport, err = c.dial(ctx, reg)
	if err != nil {
		return err
	}

	if err := transport.Connect(ctx); err != nil {
		return err
	}
	c.enter(ctx, Connected)

	tasks := make([]Task, 0, len(c.options.Components))
	for _, component := range c.options.Components {
		task := component(transport)
		if i, ok := task.(initializer); ok {
			if err := i.Initialize(ctx); err != nil {
				return err
			}
		}
		tasks = append(tasks, task)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	for _, task := range tasks {
		g.Go(func() error { return task.Run(gctx) })
	}
	c.enter(ctx, Running)

	select {
	case <-c.options.Quit:
		c.log.Info(ctx, "quit requested")
	case <-gctx.Done():
	}

	c.enter(ctx, ShuttingDown)
	cancel()
	return g.Wait()
}

func (c *Controller) closeSensor(ctx context.Context) {
	if c.options.Sensor == nil {
		return
	}
	if err := c.options.Sensor.Close(); err != nil {
		c.log.Warn(ctx, err)
	}
}
