// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package device

import "sync"

// DefaultOptimalTemperature is the optimal temperature before the cloud sets
// one.
const DefaultOptimalTemperature = 25.0

// State is the device state shared between tasks.
type State struct {
	mu                 sync.RWMutex
	optimalTemperature float64
}

// NewState returns state holding the defaults.
func NewState() *State {
	return &State{optimalTemperature: DefaultOptimalTemperature}
}

func (s *State) OptimalTemperature() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.optimalTemperature
}

func (s *State) SetOptimalTemperature(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.optimalTemperature = v
}
