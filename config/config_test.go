// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/cartertinney/iot-device-samples/protocol/errors"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	d, err := Load()
	require.NoError(t, err)

	require.Empty(t, d.ProvisioningHost)
	require.Equal(t, slog.LevelInfo, d.Level())
	require.Equal(t, 5*time.Second, d.Interval(5*time.Second))
	require.Equal(t, time.Second, d.RetryInterval(time.Second))
	require.Empty(t, d.SensorKey)
	require.False(t, d.SimulateSensor)
}

func TestLoadSensorSelection(t *testing.T) {
	t.Setenv("SENSOR_KEY", "coretemp")
	t.Setenv("SENSOR_SIMULATE", "true")

	d, err := Load()
	require.NoError(t, err)
	require.Equal(t, "coretemp", d.SensorKey)
	require.True(t, d.SimulateSensor)
}

func TestLoadSymmetricKey(t *testing.T) {
	t.Setenv("PROVISIONING_HOST", "gateway.example.net")
	t.Setenv("PROVISIONING_IDSCOPE", "0ne000ABCDE")
	t.Setenv("DEVICE_ID", "thermostat-1")
	t.Setenv("DEVICE_KEY", "a2V5")
	t.Setenv("TELEMETRY_INTERVAL", "PT2S")
	t.Setenv("SENSOR_RETRY_INTERVAL", "1500ms")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MQTT_USE_WEBSOCKETS", "true")

	d, err := Load()
	require.NoError(t, err)

	require.Equal(t, "0ne000ABCDE", d.IDScope)
	require.Equal(t, 2*time.Second, d.Interval(time.Minute))
	require.Equal(t, 1500*time.Millisecond, d.RetryInterval(time.Minute))
	require.Equal(t, slog.LevelDebug, d.Level())
	require.True(t, d.WebSockets)

	mode, err := d.Mode()
	require.NoError(t, err)
	require.Equal(t, SymmetricKey, mode)
}

func TestLoadX509RegistrationAlias(t *testing.T) {
	t.Setenv("PROVISIONING_HOST", "gateway.example.net")
	t.Setenv("ID_SCOPE", "0ne000ABCDE")
	t.Setenv("DPS_X509_REGISTRATION_ID", "fleet-7")
	t.Setenv("X509_CERT_FILE", "device.pem")
	t.Setenv("X509_KEY_FILE", "device.key")

	d, err := Load()
	require.NoError(t, err)
	require.Equal(t, "fleet-7", d.DeviceID)

	mode, err := d.Mode()
	require.NoError(t, err)
	require.Equal(t, X509, mode)
}

func TestModeErrors(t *testing.T) {
	_, err := (&Device{}).Mode()
	require.True(t, errors.IsKind(err, errors.ConfigurationInvalid))

	_, err = (&Device{DeviceKey: "a2V5", IDScope: "s", DeviceID: "d"}).Mode()
	require.True(t, errors.IsKind(err, errors.ConfigurationInvalid))
	require.ErrorContains(t, err, "PROVISIONING_HOST")

	_, err = (&Device{DeviceKey: "a2V5", ProvisioningHost: "h", DeviceID: "d"}).Mode()
	require.True(t, errors.IsKind(err, errors.ConfigurationInvalid))
	require.ErrorContains(t, err, "ID_SCOPE")

	_, err = (&Device{CertFile: "c.pem", IDScope: "s", DeviceID: "d"}).Mode()
	require.ErrorContains(t, err, "X509_KEY_FILE")

	mode, err := (&Device{
		GroupKey:         "a2V5",
		ProvisioningHost: "h",
		IDScope:          "s",
		DeviceID:         "d",
	}).Mode()
	require.NoError(t, err)
	require.Equal(t, SymmetricKey, mode)

	mode, err = (&Device{ConnectionString: "HostName=h", DeviceKey: "k"}).Mode()
	require.NoError(t, err)
	require.Equal(t, ConnectionString, mode)
}

func TestInvalidDuration(t *testing.T) {
	t.Setenv("TELEMETRY_INTERVAL", "soon")
	_, err := Load()
	require.True(t, errors.IsKind(err, errors.ConfigurationInvalid))
}
