// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package mqtt

import "strings"

// IsTopicFilterMatch reports whether a topic name matches a subscription
// filter. Hub topics carry their property bags as a trailing level, so a
// filter ending in "#" matches them regardless of the query.
func IsTopicFilterMatch(topicFilter, topicName string) bool {
	filter, name := topicFilter, topicName
	for {
		f, fRest, fMore := strings.Cut(filter, "/")
		if f == "#" {
			return !fMore
		}

		n, nRest, nMore := strings.Cut(name, "/")
		if f != "+" && f != n {
			return false
		}

		switch {
		case !fMore && !nMore:
			return true
		case !nMore:
			// "a/#" also matches the parent level "a".
			return fRest == "#"
		case !fMore:
			return false
		}
		filter, name = fRest, nRest
	}
}
