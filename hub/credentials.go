// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/mqtt/auth"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
)

const (
	apiVersion    = "2021-04-12"
	mqttPort      = 8883
	webSocketPort = 443
)

// ConnectionString holds the fields of a device connection string, e.g.
// "HostName=contoso.azure-devices.net;DeviceId=thermostat1;SharedAccessKey=...".
type ConnectionString struct {
	HostName        string
	DeviceID        string
	SharedAccessKey string
	GatewayHostName string
	X509            bool
}

// ParseConnectionString parses a device connection string. Keys are case
// insensitive.
func ParseConnectionString(cs string) (*ConnectionString, error) {
	settings := parseToSettingsMap(cs)

	parsed := &ConnectionString{
		HostName:        settings["hostname"],
		DeviceID:        settings["deviceid"],
		SharedAccessKey: settings["sharedaccesskey"],
		GatewayHostName: settings["gatewayhostname"],
		X509:            strings.EqualFold(settings["x509"], "true"),
	}

	switch {
	case parsed.HostName == "":
		return nil, missing("HostName")
	case parsed.DeviceID == "":
		return nil, missing("DeviceId")
	case parsed.SharedAccessKey == "" && !parsed.X509:
		return nil, missing("SharedAccessKey")
	}
	return parsed, nil
}

func parseToSettingsMap(cs string) map[string]string {
	settings := map[string]string{}
	for _, param := range strings.Split(strings.TrimSuffix(cs, ";"), ";") {
		k, v, ok := strings.Cut(param, "=")
		if ok {
			settings[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
		}
	}
	return settings
}

func missing(field string) error {
	return &errors.Error{
		Message:      fmt.Sprintf("connection string is missing %s", field),
		Kind:         errors.ConfigurationInvalid,
		PropertyName: field,
	}
}

// NewClientFromConnectionString creates a client authenticated with the
// shared access key in the connection string.
func NewClientFromConnectionString(
	cs string,
	opt ...ClientOption,
) (*Client, error) {
	parsed, err := ParseConnectionString(cs)
	if err != nil {
		return nil, err
	}
	if parsed.X509 {
		return nil, &errors.Error{
			Message:      "X.509 connection strings require certificate files",
			Kind:         errors.ConfigurationInvalid,
			PropertyName: "x509",
		}
	}

	host := parsed.HostName
	if parsed.GatewayHostName != "" {
		host = parsed.GatewayHostName
	}
	return newSymmetricKeyClient(
		host,
		parsed.HostName,
		parsed.DeviceID,
		parsed.SharedAccessKey,
		opt,
	)
}

// NewSymmetricKeyClient creates a client authenticated with SAS tokens
// signed by the device key.
func NewSymmetricKeyClient(
	hostname, deviceID, key string,
	opt ...ClientOption,
) (*Client, error) {
	return newSymmetricKeyClient(hostname, hostname, deviceID, key, opt)
}

// NewX509Client creates a client authenticated with a client certificate.
func NewX509Client(
	hostname, deviceID string,
	tlsOpts []mqtt.TLSOption,
	opt ...ClientOption,
) (*Client, error) {
	return newClient(hostname, hostname, deviceID, tlsOpts, nil, opt)
}

func newSymmetricKeyClient(
	host, hubName, deviceID, key string,
	opt []ClientOption,
) (*Client, error) {
	sas, err := auth.NewSharedAccessKey(key)
	if err != nil {
		return nil, &errors.Error{
			Message:      "invalid device key",
			Kind:         errors.ConfigurationInvalid,
			NestedError:  err,
			PropertyName: "SharedAccessKey",
		}
	}

	password := sas.Password(hubName + "/devices/" + url.PathEscape(deviceID))
	return newClient(host, hubName, deviceID, nil, password, opt)
}

func newClient(
	host, hubName, deviceID string,
	tlsOpts []mqtt.TLSOption,
	password mqtt.PasswordProvider,
	opt []ClientOption,
) (*Client, error) {
	var opts ClientOptions
	opts.Apply(opt)

	username := hubName + "/" + deviceID + "/?api-version=" + apiVersion
	if opts.ModelID != "" {
		username += "&model-id=" + url.QueryEscape(opts.ModelID)
	}

	conn := opts.Connection
	if conn == nil {
		conn = connection(host, tlsOpts, &opts)
	}

	sessionOpts := []mqtt.SessionClientOption{
		mqtt.WithClientID(deviceID),
		mqtt.WithUsername(mqtt.ConstantUsername(username)),
		mqtt.WithLogger(opts.Logger),
	}
	if password != nil {
		sessionOpts = append(sessionOpts, mqtt.WithPassword(password))
	}
	session := mqtt.NewSessionClient(conn, append(sessionOpts, opts.SessionClient...)...)

	return NewClient(session, deviceID, &opts)
}

func connection(
	host string,
	tlsOpts []mqtt.TLSOption,
	opts *ClientOptions,
) mqtt.ConnectionProvider {
	if opts.WebSockets {
		port := opts.Port
		if port == 0 {
			port = webSocketPort
		}
		return mqtt.WebSocketConnection(
			fmt.Sprintf("wss://%s:%d/$iothub/websocket", host, port),
			tlsOpts...,
		)
	}

	port := opts.Port
	if port == 0 {
		port = mqttPort
	}
	return mqtt.TLSConnection(host, port, tlsOpts...)
}
