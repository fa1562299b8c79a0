// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package rpc

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownRequest is returned when waiting on a request ID that was never
// added or has already been removed.
var ErrUnknownRequest = errors.New("unknown request ID")

// Pending correlates request IDs with the responses that eventually arrive on
// a shared response topic.
type Pending[T any] struct {
	mu      sync.Mutex
	waiters map[string]chan T
}

// NewPending creates an empty correlation table.
func NewPending[T any]() *Pending[T] {
	return &Pending[T]{waiters: map[string]chan T{}}
}

// Add registers a new request ID and returns it. The caller must call Wait or
// Remove for every ID it adds.
func (p *Pending[T]) Add() string {
	rid := uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.waiters[rid] = make(chan T, 1)
	return rid
}

// Resolve delivers the response for a request ID, reporting false if nobody
// is waiting for it.
func (p *Pending[T]) Resolve(rid string, value T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, ok := p.waiters[rid]
	if !ok {
		return false
	}

	// Duplicate responses are dropped.
	select {
	case ch <- value:
	default:
	}
	return true
}

// Wait blocks until the response for the request ID arrives or the context is
// done. The request ID is removed in either case.
func (p *Pending[T]) Wait(ctx context.Context, rid string) (T, error) {
	p.mu.Lock()
	ch, ok := p.waiters[rid]
	p.mu.Unlock()

	var zero T
	if !ok {
		return zero, ErrUnknownRequest
	}

	defer p.Remove(rid)

	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Remove forgets a request ID without delivering a response.
func (p *Pending[T]) Remove(rid string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.waiters, rid)
}

// Len returns the number of outstanding requests.
func (p *Pending[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.waiters)
}
