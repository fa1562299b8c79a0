// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package auth_test

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cartertinney/iot-device-samples/mqtt/auth"
	"github.com/stretchr/testify/require"
)

const deviceKey = "dGhlcm1vc3RhdC1kZXZpY2Uta2V5LTAxMjM0NTY3ODk="

var expiry = time.Unix(1700000000, 0)

func TestHubToken(t *testing.T) {
	key, err := auth.NewSharedAccessKey(deviceKey)
	require.NoError(t, err)

	require.Equal(t,
		"SharedAccessSignature sr=contoso.azure-devices.net%2Fdevices%2Fthermostat1"+
			"&sig=giEtJjSrsq9EyUxhwMlGwZlC%2Fytks0jIFuh7of4%2F36g%3D&se=1700000000",
		key.Token("contoso.azure-devices.net/devices/thermostat1", expiry),
	)
}

func TestProvisioningToken(t *testing.T) {
	key, err := auth.NewSharedAccessKey(deviceKey)
	require.NoError(t, err)
	key.KeyName = "registration"

	require.Equal(t,
		"SharedAccessSignature sr=0ne00000000%2Fregistrations%2Fthermostat1"+
			"&sig=ON%2F48BYxzrqOMitdxCsNoQJumtAkoxmQ16JNT2%2FMK0I%3D"+
			"&se=1700000000&skn=registration",
		key.Token("0ne00000000/registrations/thermostat1", expiry),
	)
}

func TestDeriveDeviceKey(t *testing.T) {
	derived, err := auth.DeriveDeviceKey(deviceKey, "thermostat1")
	require.NoError(t, err)
	require.Equal(t, "wAHukO7FNf6+tMAJmypfo4RBuEzQ8rTGQW/fYkxWFos=", derived)

	_, err = auth.DeriveDeviceKey("not base64!", "thermostat1")
	require.Error(t, err)
}

func TestInvalidKey(t *testing.T) {
	_, err := auth.NewSharedAccessKey("%%%")
	require.Error(t, err)

	_, err = auth.NewSharedAccessKey("")
	require.Error(t, err)
}

func TestPasswordMintsFreshToken(t *testing.T) {
	key, err := auth.NewSharedAccessKey(deviceKey)
	require.NoError(t, err)
	key.TTL = 10 * time.Minute

	password := key.Password("contoso.azure-devices.net/devices/thermostat1")
	token, err := password(context.Background())
	require.NoError(t, err)

	query, ok := strings.CutPrefix(string(token), "SharedAccessSignature ")
	require.True(t, ok)
	values, err := url.ParseQuery(query)
	require.NoError(t, err)

	se, err := strconv.ParseInt(values.Get("se"), 10, 64)
	require.NoError(t, err)
	require.InDelta(t, time.Now().Add(10*time.Minute).Unix(), se, 5)
	require.Equal(t, "contoso.azure-devices.net/devices/thermostat1", values.Get("sr"))
}
