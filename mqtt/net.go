// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"

	"github.com/eclipse/paho.golang/packets"
)

type (
	// ConnectionProvider is a function that returns a net.Conn connected to an
	// MQTT server that is ready to read to and write from. Note that the
	// returned net.Conn must be thread-safe (i.e., concurrent Write calls must
	// not interleave).
	ConnectionProvider func(context.Context) (net.Conn, error)

	// TLSOption is a function that modifies the TLS configuration before each
	// connection.
	TLSOption func(context.Context, *tls.Config) error
)

// TCPConnection is a ConnectionProvider that connects to an MQTT server over
// TCP.
func TCPConnection(hostname string, port int) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		conn, err := d.DialContext(
			ctx,
			"tcp",
			net.JoinHostPort(hostname, fmt.Sprint(port)),
		)
		if err != nil {
			return nil, &ConnectionError{Op: "dial tcp", Err: err}
		}
		return packets.NewThreadSafeConn(conn), nil
	}
}

// TLSConnection is a ConnectionProvider that connects to an MQTT server with
// TLS over TCP.
func TLSConnection(
	hostname string,
	port int,
	opts ...TLSOption,
) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		config, err := tlsConfig(ctx, hostname, opts)
		if err != nil {
			return nil, err
		}

		d := tls.Dialer{Config: config}
		conn, err := d.DialContext(
			ctx,
			"tcp",
			net.JoinHostPort(hostname, fmt.Sprint(port)),
		)
		if err != nil {
			return nil, &ConnectionError{Op: "dial tls", Err: err}
		}
		return packets.NewThreadSafeConn(conn), nil
	}
}

// WebSocketConnection is a ConnectionProvider that connects to an MQTT server
// over a WebSocket at the given URL. TLS options apply to "wss" URLs.
func WebSocketConnection(
	rawURL string,
	opts ...TLSOption,
) ConnectionProvider {
	return func(ctx context.Context) (net.Conn, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, &InvalidArgumentError{Name: "WebSocket URL", Err: err}
		}

		var config *tls.Config
		if u.Scheme == "wss" {
			config, err = tlsConfig(ctx, u.Hostname(), opts)
			if err != nil {
				return nil, err
			}
		}

		return dialWebSocket(ctx, u.String(), config)
	}
}

func tlsConfig(
	ctx context.Context,
	hostname string,
	opts []TLSOption,
) (*tls.Config, error) {
	config := &tls.Config{
		ServerName: hostname,
		MinVersion: tls.VersionTLS12,
	}
	for _, opt := range opts {
		if err := opt(ctx, config); err != nil {
			return nil, &ConnectionError{Op: "tls config", Err: err}
		}
	}
	return config, nil
}
