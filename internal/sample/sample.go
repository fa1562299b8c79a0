// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package sample wires configuration to clients for the sample binaries.
package sample

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cartertinney/iot-device-samples/config"
	"github.com/cartertinney/iot-device-samples/device"
	"github.com/cartertinney/iot-device-samples/hub"
	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/mqtt/auth"
	"github.com/cartertinney/iot-device-samples/provisioning"
	"github.com/lmittmann/tint"
)

// Logger creates the console logger used by the samples.
func Logger(level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
	}))
}

// Connect builds the provisioner and hub dialer for the configured
// authentication mode. The provisioner is nil for connection strings.
func Connect(
	cfg *config.Device,
	logger *slog.Logger,
	opt ...hub.ClientOption,
) (device.Provisioner, device.Dialer, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, nil, err
	}

	hubOpts := []hub.ClientOption{
		hub.WithWebSockets(cfg.WebSockets),
		hub.WithLogger(logger),
	}
	if cfg.ModelID != "" {
		hubOpts = append(hubOpts, hub.WithModelID(cfg.ModelID))
	}
	hubOpts = append(hubOpts, opt...)

	provOpts := []provisioning.ClientOption{
		provisioning.WithWebSockets(cfg.WebSockets),
		provisioning.WithLogger(logger),
	}
	if cfg.ModelID != "" {
		provOpts = append(provOpts, provisioning.WithModelID(cfg.ModelID))
	}

	switch mode {
	case config.ConnectionString:
		return nil, func(
			context.Context,
			*provisioning.RegistrationResult,
		) (device.Transport, error) {
			return transport(hub.NewClientFromConnectionString(
				cfg.ConnectionString,
				hubOpts...,
			))
		}, nil

	case config.X509:
		tlsOpts := []mqtt.TLSOption{mqtt.WithX509(cfg.CertFile, cfg.KeyFile)}
		if cfg.PassPhrase != "" {
			tlsOpts = []mqtt.TLSOption{mqtt.WithEncryptedX509(
				cfg.CertFile,
				cfg.KeyFile,
				[]byte(cfg.PassPhrase),
			)}
		}

		prov, err := provisioning.NewX509Client(
			cfg.ProvisioningHost,
			cfg.IDScope,
			cfg.DeviceID,
			tlsOpts,
			provOpts...,
		)
		if err != nil {
			return nil, nil, err
		}
		return prov, func(
			_ context.Context,
			reg *provisioning.RegistrationResult,
		) (device.Transport, error) {
			return transport(hub.NewX509Client(
				reg.RegistrationState.AssignedHub,
				reg.RegistrationState.DeviceID,
				tlsOpts,
				hubOpts...,
			))
		}, nil

	default:
		key := cfg.DeviceKey
		if cfg.GroupKey != "" {
			if key, err = auth.DeriveDeviceKey(cfg.GroupKey, cfg.DeviceID); err != nil {
				return nil, nil, err
			}
		}

		prov, err := provisioning.NewSymmetricKeyClient(
			cfg.ProvisioningHost,
			cfg.IDScope,
			cfg.DeviceID,
			key,
			provOpts...,
		)
		if err != nil {
			return nil, nil, err
		}
		return prov, func(
			_ context.Context,
			reg *provisioning.RegistrationResult,
		) (device.Transport, error) {
			return transport(hub.NewSymmetricKeyClient(
				reg.RegistrationState.AssignedHub,
				reg.RegistrationState.DeviceID,
				key,
				hubOpts...,
			))
		}, nil
	}
}

func transport(c *hub.Client, err error) (device.Transport, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
