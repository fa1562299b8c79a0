// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package options

import "iter"

// Apply filters the provided options down to those implementing O, skipping
// nil entries, and yields them in order. It allows option structs to accept
// both their own option interface and broader option sets.
func Apply[O any, T any](opts []T, rest ...T) iter.Seq[O] {
	return func(yield func(O) bool) {
		for _, set := range [][]T{opts, rest} {
			for _, opt := range set {
				o, ok := any(opt).(O)
				if !ok || any(o) == nil {
					continue
				}
				if !yield(o) {
					return
				}
			}
		}
	}
}
