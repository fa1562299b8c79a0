// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.

// Package config loads the sample device configuration from the
// environment.
//
// The samples speak MQTT v5. PROVISIONING_HOST and the hub host must name a
// broker or gateway that accepts MQTT v5 with the IoT Hub topic layout; the
// public Azure IoT Hub and provisioning endpoints only accept MQTT 3.1.1, so
// there is no default provisioning host.
package config

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/cartertinney/iot-device-samples/protocol/iso"
	"github.com/joeshaw/envdecode"

	sdkerrors "github.com/cartertinney/iot-device-samples/protocol/errors"
)

type (
	// Device holds the configuration shared by the samples.
	Device struct {
		ProvisioningHost    string `env:"PROVISIONING_HOST"`
		IDScope             string `env:"ID_SCOPE"`
		ProvisioningIDScope string `env:"PROVISIONING_IDSCOPE"`
		DeviceID            string `env:"DEVICE_ID"`
		RegistrationID      string `env:"DPS_X509_REGISTRATION_ID"`
		DeviceKey           string `env:"DEVICE_KEY"`
		GroupKey            string `env:"GROUP_KEY"`
		CertFile            string `env:"X509_CERT_FILE"`
		KeyFile             string `env:"X509_KEY_FILE"`
		PassPhrase          string `env:"PASS_PHRASE"`
		ModelID             string `env:"MODEL_ID"`
		ConnectionString    string `env:"IOTHUB_DEVICE_CONNECTION_STRING"`

		TelemetryInterval   iso.Duration `env:"TELEMETRY_INTERVAL"`
		SensorRetryInterval iso.Duration `env:"SENSOR_RETRY_INTERVAL"`

		WebSockets bool   `env:"MQTT_USE_WEBSOCKETS"`
		LogLevel   string `env:"LOG_LEVEL,default=info"`

		// SensorKey selects the host temperature sensors to average, such
		// as "coretemp". Empty averages every sensor.
		SensorKey string `env:"SENSOR_KEY"`

		// SimulateSensor replaces the host sensor with a simulated one.
		SimulateSensor bool `env:"SENSOR_SIMULATE"`
	}

	// Mode is how the device authenticates.
	Mode int
)

const (
	// ConnectionString connects straight to the hub with a device
	// connection string.
	ConnectionString Mode = iota

	// SymmetricKey provisions with a device or group enrollment key.
	SymmetricKey

	// X509 provisions with a client certificate.
	X509
)

// Load decodes the configuration from the environment and resolves aliases
// and defaults.
func Load() (*Device, error) {
	d := &Device{}
	if err := envdecode.Decode(d); err != nil &&
		!errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, &sdkerrors.Error{
			Message:     "invalid environment configuration",
			Kind:        sdkerrors.ConfigurationInvalid,
			NestedError: err,
		}
	}

	if d.IDScope == "" {
		d.IDScope = d.ProvisioningIDScope
	}
	if d.DeviceID == "" {
		d.DeviceID = d.RegistrationID
	}
	if d.LogLevel == "" {
		d.LogLevel = "info"
	}
	return d, nil
}

// Mode selects the authentication mode from the settings present. A
// connection string wins over provisioning settings.
func (d *Device) Mode() (Mode, error) {
	switch {
	case d.ConnectionString != "":
		return ConnectionString, nil
	case d.CertFile != "" || d.KeyFile != "":
		if d.CertFile == "" || d.KeyFile == "" {
			return 0, missing("X509_CERT_FILE and X509_KEY_FILE")
		}
		return X509, d.validateProvisioning()
	case d.DeviceKey != "" || d.GroupKey != "":
		return SymmetricKey, d.validateProvisioning()
	default:
		return 0, missing("IOTHUB_DEVICE_CONNECTION_STRING, DEVICE_KEY or X509_CERT_FILE")
	}
}

func (d *Device) validateProvisioning() error {
	if d.ProvisioningHost == "" {
		return missing("PROVISIONING_HOST")
	}
	if d.IDScope == "" {
		return missing("ID_SCOPE")
	}
	if d.DeviceID == "" {
		return missing("DEVICE_ID")
	}
	return nil
}

// Interval returns the configured telemetry interval, or def when unset.
func (d *Device) Interval(def time.Duration) time.Duration {
	if d.TelemetryInterval > 0 {
		return time.Duration(d.TelemetryInterval)
	}
	return def
}

// RetryInterval returns the configured sensor retry interval, or def when
// unset.
func (d *Device) RetryInterval(def time.Duration) time.Duration {
	if d.SensorRetryInterval > 0 {
		return time.Duration(d.SensorRetryInterval)
	}
	return def
}

// Level parses LOG_LEVEL, defaulting to info.
func (d *Device) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(d.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func missing(name string) error {
	return &sdkerrors.Error{
		Message:      "missing configuration: " + name,
		Kind:         sdkerrors.ConfigurationInvalid,
		PropertyName: name,
	}
}
