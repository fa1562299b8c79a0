// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub

import (
	"time"

	"github.com/cartertinney/iot-device-samples/protocol"
	"github.com/goccy/go-json"
)

type (
	// Message is a device-to-cloud telemetry message.
	Message struct {
		Payload         []byte
		ContentType     string
		ContentEncoding string

		// MessageID is optional; it is sent as the "$.mid" system property.
		MessageID string

		// CreationTime is sent as the "iothub-creation-time-utc" property when
		// set.
		CreationTime time.Time

		// Properties are custom application properties.
		Properties map[string]string
	}

	// MethodRequest is a direct method (command) invocation from the cloud.
	MethodRequest struct {
		Name      string
		RequestID string

		// Payload is never nil; an absent or null payload is an empty map.
		Payload map[string]any
	}

	// MethodResponse is the device's single reply to a MethodRequest.
	MethodResponse struct {
		RequestID string
		Status    int
		Payload   any
	}

	// TwinProperties is one side of the device twin, or a patch to it.
	TwinProperties map[string]any

	// Twin is the full device twin document.
	Twin struct {
		Desired  TwinProperties `json:"desired"`
		Reported TwinProperties `json:"reported"`
	}

	// Ack is the reported-property record that acknowledges a writable
	// property update.
	Ack struct {
		Code        int    `json:"ac"`
		Description string `json:"ad"`
		Version     int    `json:"av"`
		Value       any    `json:"value"`
	}
)

// Keys the service adds to desired-property documents.
const (
	VersionProperty  = "$version"
	MetadataProperty = "__t"
)

// IsReserved reports whether a twin key is service metadata rather than a
// device property.
func IsReserved(key string) bool {
	return key == VersionProperty || key == MetadataProperty
}

// NewMessage encodes a value into a telemetry message.
func NewMessage[T any](
	encoding protocol.Encoding[T],
	value T,
) (*Message, error) {
	data, err := protocol.Serialize[T](encoding, value)
	if err != nil {
		return nil, err
	}
	return &Message{
		Payload:         data.Payload,
		ContentType:     data.ContentType,
		ContentEncoding: data.ContentEncoding,
	}, nil
}

// Version returns the "$version" of the document, if present.
func (p TwinProperties) Version() (int, bool) {
	switch v := p[VersionProperty].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}
