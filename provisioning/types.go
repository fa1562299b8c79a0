// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package provisioning

import "github.com/cartertinney/iot-device-samples/protocol/iso"

// Registration statuses reported by the provisioning service.
const (
	StatusUnassigned = "unassigned"
	StatusAssigning  = "assigning"
	StatusAssigned   = "assigned"
	StatusFailed     = "failed"
	StatusDisabled   = "disabled"
)

type (
	// RegistrationResult is the outcome of a registration operation.
	RegistrationResult struct {
		OperationID       string             `json:"operationId"`
		Status            string             `json:"status"`
		RegistrationState *RegistrationState `json:"registrationState,omitempty"`
	}

	// RegistrationState describes the device identity the service assigned.
	RegistrationState struct {
		RegistrationID         string       `json:"registrationId"`
		AssignedHub            string       `json:"assignedHub"`
		DeviceID               string       `json:"deviceId"`
		Status                 string       `json:"status"`
		SubStatus              string       `json:"substatus"`
		CreatedDateTimeUTC     iso.DateTime `json:"createdDateTimeUtc"`
		LastUpdatedDateTimeUTC iso.DateTime `json:"lastUpdatedDateTimeUtc"`
		ETag                   string       `json:"etag"`
		ErrorCode              int          `json:"errorCode"`
		ErrorMessage           string       `json:"errorMessage"`
	}

	registrationRequest struct {
		RegistrationID string `json:"registrationId"`
		Payload        any    `json:"payload,omitempty"`
	}
)

// Assigned reports whether the device was assigned to a hub.
func (r *RegistrationResult) Assigned() bool {
	return r.Status == StatusAssigned &&
		r.RegistrationState != nil &&
		r.RegistrationState.AssignedHub != ""
}
