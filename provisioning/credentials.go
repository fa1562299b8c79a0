// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package provisioning

import (
	"fmt"

	"github.com/cartertinney/iot-device-samples/mqtt"
	"github.com/cartertinney/iot-device-samples/mqtt/auth"
	"github.com/cartertinney/iot-device-samples/protocol/errors"
)

const (
	apiVersion    = "2019-03-31"
	mqttPort      = 8883
	webSocketPort = 443
)

// NewSymmetricKeyClient creates a provisioning client authenticated with a
// SAS token signed by the enrollment's device key.
func NewSymmetricKeyClient(
	host, idScope, registrationID, key string,
	opt ...ClientOption,
) (*Client, error) {
	sas, err := auth.NewSharedAccessKey(key)
	if err != nil {
		return nil, &errors.Error{
			Message:      "invalid device key",
			Kind:         errors.ConfigurationInvalid,
			NestedError:  err,
			PropertyName: "DeviceKey",
		}
	}
	sas.KeyName = "registration"

	password := sas.Password(idScope + "/registrations/" + registrationID)
	return newClient(host, idScope, registrationID, nil, password, opt)
}

// NewX509Client creates a provisioning client authenticated with a client
// certificate whose common name is the registration ID.
func NewX509Client(
	host, idScope, registrationID string,
	tlsOpts []mqtt.TLSOption,
	opt ...ClientOption,
) (*Client, error) {
	return newClient(host, idScope, registrationID, tlsOpts, nil, opt)
}

func newClient(
	host, idScope, registrationID string,
	tlsOpts []mqtt.TLSOption,
	password mqtt.PasswordProvider,
	opt []ClientOption,
) (*Client, error) {
	if idScope == "" {
		return nil, &errors.Error{
			Message:      "ID scope must not be empty",
			Kind:         errors.ConfigurationInvalid,
			PropertyName: "IDScope",
		}
	}
	var opts ClientOptions
	opts.Apply(opt)

	conn := opts.Connection
	if conn == nil && host == "" {
		return nil, &errors.Error{
			Message:      "provisioning host must not be empty",
			Kind:         errors.ConfigurationInvalid,
			PropertyName: "Host",
		}
	}
	if conn == nil {
		if opts.WebSockets {
			port := opts.Port
			if port == 0 {
				port = webSocketPort
			}
			conn = mqtt.WebSocketConnection(
				fmt.Sprintf("wss://%s:%d/$iothub/websocket", host, port),
				tlsOpts...,
			)
		} else {
			port := opts.Port
			if port == 0 {
				port = mqttPort
			}
			conn = mqtt.TLSConnection(host, port, tlsOpts...)
		}
	}

	username := idScope + "/registrations/" + registrationID +
		"/api-version=" + apiVersion
	sessionOpts := []mqtt.SessionClientOption{
		mqtt.WithClientID(registrationID),
		mqtt.WithUsername(mqtt.ConstantUsername(username)),
		mqtt.WithLogger(opts.Logger),
	}
	if password != nil {
		sessionOpts = append(sessionOpts, mqtt.WithPassword(password))
	}
	session := mqtt.NewSessionClient(conn, append(sessionOpts, opts.SessionClient...)...)

	return NewClient(session, registrationID, &opts)
}
