// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cartertinney/iot-device-samples/internal/wallclock"
	"github.com/cartertinney/iot-device-samples/mqtt"
)

// DefaultTokenTTL is the lifetime of tokens minted by SharedAccessKey when no
// TTL is configured.
const DefaultTokenTTL = time.Hour

// SharedAccessKey signs shared access signature (SAS) tokens for IoT Hub and
// the Device Provisioning Service.
type SharedAccessKey struct {
	key []byte

	// KeyName is appended as the "skn" field when set. The provisioning
	// service expects "registration".
	KeyName string

	// TTL is the lifetime of each minted token.
	TTL time.Duration
}

// NewSharedAccessKey decodes a base64 symmetric key.
func NewSharedAccessKey(key string) (*SharedAccessKey, error) {
	decoded, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("invalid shared access key: %w", err)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("invalid shared access key: empty")
	}
	return &SharedAccessKey{key: decoded}, nil
}

// Token returns a SAS token for the resource URI that expires at expiry.
func (k *SharedAccessKey) Token(resource string, expiry time.Time) string {
	sr := url.QueryEscape(resource)
	se := strconv.FormatInt(expiry.Unix(), 10)

	mac := hmac.New(sha256.New, k.key)
	mac.Write([]byte(sr + "\n" + se))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	token := "SharedAccessSignature sr=" + sr +
		"&sig=" + url.QueryEscape(sig) +
		"&se=" + se
	if k.KeyName != "" {
		token += "&skn=" + url.QueryEscape(k.KeyName)
	}
	return token
}

// Password returns an MQTT password provider that mints a fresh token for the
// resource on every connection attempt.
func (k *SharedAccessKey) Password(resource string) mqtt.PasswordProvider {
	return func(context.Context) ([]byte, error) {
		ttl := k.TTL
		if ttl <= 0 {
			ttl = DefaultTokenTTL
		}
		expiry := wallclock.Instance.Now().Add(ttl)
		return []byte(k.Token(resource, expiry)), nil
	}
}

// DeriveDeviceKey derives the symmetric key of an individual device from a
// group enrollment key and the device registration ID.
func DeriveDeviceKey(groupKey, registrationID string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(groupKey)
	if err != nil {
		return "", fmt.Errorf("invalid group key: %w", err)
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(registrationID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
