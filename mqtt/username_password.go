// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import "context"

type (
	// UsernameProvider is a function that returns an MQTT username for each
	// connection attempt.
	UsernameProvider func(context.Context) (string, error)

	// PasswordProvider is a function that returns an MQTT password for each
	// connection attempt. Short-lived credentials such as SAS tokens should be
	// minted here so a retried connection never presents an expired one.
	PasswordProvider func(context.Context) ([]byte, error)
)

// ConstantUsername is a UsernameProvider implementation that returns an
// unchanging username.
func ConstantUsername(username string) UsernameProvider {
	return func(context.Context) (string, error) {
		return username, nil
	}
}

// ConstantPassword is a PasswordProvider implementation that returns an
// unchanging password.
func ConstantPassword(password []byte) PasswordProvider {
	return func(context.Context) ([]byte, error) {
		return password, nil
	}
}
