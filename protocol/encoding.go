// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package protocol

import (
	stderr "errors"

	"github.com/cartertinney/iot-device-samples/protocol/errors"
	"github.com/goccy/go-json"
)

type (
	// Encoding is a translation between a concrete Go type T and encoded data.
	// All methods *must* be thread-safe.
	Encoding[T any] interface {
		Serialize(T) (*Data, error)
		Deserialize(*Data) (T, error)
	}

	// Data represents encoded values along with their transmitted content type
	// and content encoding.
	Data struct {
		Payload         []byte
		ContentType     string
		ContentEncoding string
	}

	// JSON is a simple implementation of a JSON encoding.
	JSON[T any] struct{}

	// Raw represents a raw byte stream.
	Raw struct{}
)

// Content types and encodings used by the encodings in this package.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeBinary = "application/octet-stream"
	EncodingUTF8      = "utf-8"
)

// ErrUnsupportedContentType should be returned if the content type is not
// supported by this encoding.
var ErrUnsupportedContentType = stderr.New("unsupported content type")

// Serialize encodes a value with a structured error on failure.
func Serialize[T any](encoding Encoding[T], value T) (*Data, error) {
	data, err := encoding.Serialize(value)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e
		}
		return nil, &errors.Error{
			Message:     "cannot serialize payload",
			Kind:        errors.PayloadInvalid,
			NestedError: err,
		}
	}
	return data, nil
}

// Deserialize decodes a value with a structured error on failure.
func Deserialize[T any](encoding Encoding[T], data *Data) (T, error) {
	value, err := encoding.Deserialize(data)
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return value, e
		}
		if stderr.Is(err, ErrUnsupportedContentType) {
			return value, &errors.Error{
				Message:       "content type mismatch",
				Kind:          errors.PayloadInvalid,
				PropertyName:  "ContentType",
				PropertyValue: data.ContentType,
			}
		}
		return value, &errors.Error{
			Message:     "cannot deserialize payload",
			Kind:        errors.PayloadInvalid,
			NestedError: err,
		}
	}
	return value, nil
}

// Serialize translates the Go type T into UTF-8 JSON bytes.
func (JSON[T]) Serialize(t T) (*Data, error) {
	bytes, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return &Data{bytes, ContentTypeJSON, EncodingUTF8}, nil
}

// Deserialize translates JSON bytes into the Go type T.
func (JSON[T]) Deserialize(data *Data) (T, error) {
	var t T
	switch data.ContentType {
	case "", ContentTypeJSON:
		err := json.Unmarshal(data.Payload, &t)
		return t, err
	default:
		return t, ErrUnsupportedContentType
	}
}

// Serialize returns the bytes unchanged.
func (Raw) Serialize(t []byte) (*Data, error) {
	return &Data{Payload: t, ContentType: ContentTypeBinary}, nil
}

// Deserialize returns the bytes unchanged.
func (Raw) Deserialize(data *Data) ([]byte, error) {
	switch data.ContentType {
	case "", ContentTypeBinary:
		return data.Payload, nil
	default:
		return nil, ErrUnsupportedContentType
	}
}
