// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package rpc

import (
	"net/url"
	"strconv"
	"strings"
)

// Response is a parsed status-bearing response topic, e.g.
// "$iothub/twin/res/200/?$rid=1&$version=4".
type Response struct {
	Status  int
	Query   url.Values
	Payload []byte
}

// RequestID returns the "$rid" value of the response.
func (r *Response) RequestID() string {
	return r.Query.Get("$rid")
}

// ParseResponse parses a response topic of the form
// "{prefix}{status}/?{query}". It reports false if the topic does not match
// the prefix or is malformed.
func ParseResponse(prefix, topic string, payload []byte) (*Response, bool) {
	rest, ok := strings.CutPrefix(topic, prefix)
	if !ok {
		return nil, false
	}

	status, query, _ := strings.Cut(rest, "/")
	code, err := strconv.Atoi(status)
	if err != nil {
		return nil, false
	}

	values, err := ParseQuery(query)
	if err != nil {
		return nil, false
	}

	return &Response{Status: code, Query: values, Payload: payload}, true
}

// ParseQuery parses the property bag that trails a topic, with or without its
// leading "?".
func ParseQuery(query string) (url.Values, error) {
	return url.ParseQuery(strings.TrimPrefix(query, "?"))
}
