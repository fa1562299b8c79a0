// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package inbox

import (
	"context"
	"sync"
)

// Inbox buffers values pushed from a message callback until a receiver asks
// for them. Push never blocks, so it is safe to call from an MQTT handler.
type Inbox[T any] struct {
	mu      sync.Mutex
	items   []T
	maxSize int
	notify  chan struct{}
}

// New creates an inbox holding at most maxSize undelivered values. A maxSize
// of zero means unbounded.
func New[T any](maxSize int) *Inbox[T] {
	return &Inbox[T]{
		maxSize: maxSize,
		notify:  make(chan struct{}, 1),
	}
}

// Push adds a value to the inbox, reporting false if it was dropped because
// the inbox is full.
func (b *Inbox[T]) Push(value T) bool {
	b.mu.Lock()
	ok := b.maxSize == 0 || len(b.items) < b.maxSize
	if ok {
		b.items = append(b.items, value)
	}
	b.mu.Unlock()

	if ok {
		select {
		case b.notify <- struct{}{}:
		default:
		}
	}
	return ok
}

// Receive blocks until a value is available or the context is done.
func (b *Inbox[T]) Receive(ctx context.Context) (T, error) {
	for {
		b.mu.Lock()
		value, ok := b.pop()
		remaining := len(b.items)
		b.mu.Unlock()

		if ok {
			// Pass the wakeup along if there is more to read.
			if remaining > 0 {
				select {
				case b.notify <- struct{}{}:
				default:
				}
			}
			return value, nil
		}

		select {
		case <-b.notify:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of undelivered values.
func (b *Inbox[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

func (b *Inbox[T]) pop() (T, bool) {
	var zero T
	if len(b.items) == 0 {
		return zero, false
	}
	value := b.items[0]
	b.items[0] = zero
	b.items = b.items[1:]
	if len(b.items) == 0 {
		// Let the backing array go once drained.
		b.items = nil
	}
	return value, true
}
