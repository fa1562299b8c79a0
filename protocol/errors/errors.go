// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package errors

import (
	"fmt"
	"time"
)

type (
	// Error represents a structured device SDK error.
	Error struct {
		Message string
		Kind    Kind

		NestedError error

		TimeoutName  string
		TimeoutValue time.Duration

		PropertyName  string
		PropertyValue any

		// StatusCode is the status returned by the hub or provisioning
		// service for a ServiceError.
		StatusCode int
	}

	// Kind defines the type of error being thrown.
	Kind int
)

// The following are the defined error kinds.
const (
	PayloadInvalid Kind = iota
	Timeout
	Cancellation
	ConfigurationInvalid
	ArgumentInvalid
	StateInvalid
	ServiceError
	UnknownError
)

// Error returns the error as a string.
func (e *Error) Error() string {
	if e.NestedError != nil && e.Kind != UnknownError {
		return fmt.Sprintf("%s: %v", e.Message, e.NestedError)
	}
	return e.Message
}

// Unwrap returns the nested error, if any.
func (e *Error) Unwrap() error {
	return e.NestedError
}

// String returns the name of the error kind.
func (k Kind) String() string {
	switch k {
	case PayloadInvalid:
		return "payload invalid"
	case Timeout:
		return "timeout"
	case Cancellation:
		return "cancellation"
	case ConfigurationInvalid:
		return "configuration invalid"
	case ArgumentInvalid:
		return "argument invalid"
	case StateInvalid:
		return "state invalid"
	case ServiceError:
		return "service error"
	default:
		return "unknown error"
	}
}
