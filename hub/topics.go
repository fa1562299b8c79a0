// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package hub

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/cartertinney/iot-device-samples/internal/rpc"
	"github.com/cartertinney/iot-device-samples/protocol/iso"
)

const (
	methodsPrefix       = "$iothub/methods/POST/"
	methodsFilter       = methodsPrefix + "#"
	methodResponseTopic = "$iothub/methods/res/"

	twinResponsePrefix = "$iothub/twin/res/"
	twinResponseFilter = twinResponsePrefix + "#"
	twinGetTopic       = "$iothub/twin/GET/?$rid="
	twinReportedTopic  = "$iothub/twin/PATCH/properties/reported/?$rid="
	twinDesiredPrefix  = "$iothub/twin/PATCH/properties/desired/"
	twinDesiredFilter  = twinDesiredPrefix + "#"

	creationTimeProperty = "iothub-creation-time-utc"
)

// telemetryTopic builds the events topic with the message properties encoded
// in its property bag. System properties keep their literal "$." prefix.
func telemetryTopic(deviceID string, msg *Message) string {
	var bag []string
	add := func(k, v string) {
		if v != "" {
			bag = append(bag, k+"="+url.QueryEscape(v))
		}
	}

	add("$.ct", msg.ContentType)
	add("$.ce", msg.ContentEncoding)
	add("$.mid", msg.MessageID)
	if !msg.CreationTime.IsZero() {
		add(creationTimeProperty, iso.DateTime(msg.CreationTime.UTC()).String())
	}

	keys := make([]string, 0, len(msg.Properties))
	for k := range msg.Properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		add(url.QueryEscape(k), msg.Properties[k])
	}

	return "devices/" + deviceID + "/messages/events/" + strings.Join(bag, "&")
}

func methodResponse(status int, rid string) string {
	return methodResponseTopic + strconv.Itoa(status) + "/?$rid=" +
		url.QueryEscape(rid)
}

// parseMethodTopic splits "$iothub/methods/POST/{name}/?$rid={rid}".
func parseMethodTopic(topic string) (name, rid string, ok bool) {
	rest, ok := strings.CutPrefix(topic, methodsPrefix)
	if !ok {
		return "", "", false
	}

	name, query, _ := strings.Cut(rest, "/")
	values, err := rpc.ParseQuery(query)
	if err != nil || name == "" {
		return "", "", false
	}

	rid = values.Get("$rid")
	return name, rid, rid != ""
}
