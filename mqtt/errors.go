// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import "fmt"

type (
	// ClientState is the lifecycle state of a session client. A session
	// client is single-use: once shut down it cannot be connected again.
	ClientState byte

	// ClientStateError is returned when an operation is not allowed in the
	// client's current state.
	ClientStateError struct {
		State ClientState
	}

	// ConnectionError is a failure of the network connection or of an
	// operation on it.
	ConnectionError struct {
		Op  string
		Err error
	}

	// ConnackError is a CONNACK with an error reason code. Fatal codes (bad
	// credentials, banned) are never retried.
	ConnackError struct {
		ReasonCode byte
		Fatal      bool
	}

	// SubackError is a subscription the server refused.
	SubackError struct {
		ReasonCode byte
	}

	// InvalidArgumentError is an invalid option or argument value.
	InvalidArgumentError struct {
		Name  string
		Value any
		Err   error
	}
)

const (
	NotStarted ClientState = iota
	Started
	ShutDown
)

func (s ClientState) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Started:
		return "started"
	case ShutDown:
		return "shut down"
	default:
		return fmt.Sprintf("state(%d)", byte(s))
	}
}

func (e *ClientStateError) Error() string {
	return "session client is " + e.State.String()
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return "mqtt " + e.Op + " failed"
	}
	return fmt.Sprintf("mqtt %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnackError) Error() string {
	kind := "error"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("CONNACK %s reason code %#02x", kind, e.ReasonCode)
}

func (e *SubackError) Error() string {
	return fmt.Sprintf("SUBACK reason code %#02x", e.ReasonCode)
}

func (e *InvalidArgumentError) Error() string {
	msg := "invalid " + e.Name
	if e.Value != nil {
		msg = fmt.Sprintf("%s %v", msg, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}

// connackError classifies a CONNACK failure, reporting whether it is worth
// retrying.
func connackError(code byte) (retry bool, err error) {
	switch code {
	case 0x84, // unsupported protocol version
		0x85, // client identifier not valid
		0x86, // bad user name or password
		0x87, // not authorized
		0x8A, // banned
		0x8C: // bad authentication method
		return false, &ConnackError{ReasonCode: code, Fatal: true}
	default:
		return true, &ConnackError{ReasonCode: code}
	}
}
