// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package rpc_test

import (
	"context"
	"testing"
	"time"

	"github.com/cartertinney/iot-device-samples/internal/rpc"
	"github.com/stretchr/testify/require"
)

func TestPendingResolve(t *testing.T) {
	p := rpc.NewPending[int]()
	rid := p.Add()
	require.Equal(t, 1, p.Len())

	go func() {
		require.True(t, p.Resolve(rid, 42))
	}()

	v, err := p.Wait(context.Background(), rid)
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.Zero(t, p.Len())
}

func TestPendingUnknown(t *testing.T) {
	p := rpc.NewPending[int]()
	require.False(t, p.Resolve("nope", 1))
}

func TestPendingTimeout(t *testing.T) {
	p := rpc.NewPending[int]()
	rid := p.Add()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := p.Wait(ctx, rid)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Zero(t, p.Len())
	require.False(t, p.Resolve(rid, 1))
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		topic   string
		ok      bool
		status  int
		rid     string
		version string
	}{
		{"$iothub/twin/res/200/?$rid=abc", true, 200, "abc", ""},
		{"$iothub/twin/res/204/?$rid=abc&$version=7", true, 204, "abc", "7"},
		{"$iothub/twin/res/xyz/?$rid=abc", false, 0, "", ""},
		{"$iothub/methods/POST/reset/?$rid=1", false, 0, "", ""},
	}

	for _, test := range tests {
		res, ok := rpc.ParseResponse("$iothub/twin/res/", test.topic, nil)
		require.Equal(t, test.ok, ok, test.topic)
		if !ok {
			continue
		}
		require.Equal(t, test.status, res.Status)
		require.Equal(t, test.rid, res.RequestID())
		require.Equal(t, test.version, res.Query.Get("$version"))
	}
}
