// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package stage

import (
	"errors"
	"sync"
)

// ErrInvalidOverride is returned when setting an override outside the four
// ordered in-flow stages.
var ErrInvalidOverride = errors.New("override must be one of the four workflow stages")

// OverrideState is the pure state for the override transition function.
// Override == 0 means no override is set.
type OverrideState struct {
	Override     Stage
	LastResolved Stage
}

// Transition applies one resolved-stage observation to an override state.
// The override is cleared only when the resolver has moved strictly past the
// overridden value itself. A resolved stage at or below the override leaves it
// in place, as does a non-numeric resolved stage (error), so a user who
// stepped back is not snapped forward until genuine progress has occurred.
func Transition(state OverrideState, resolved Stage) OverrideState {
	next := state
	if state.Override.Numeric() && resolved.Numeric() && resolved > state.Override {
		next.Override = 0
	}
	next.LastResolved = resolved
	return next
}

// Override tracks a user-initiated stage override for one case. The override
// survives resolver recomputation until the resolved stage advances strictly
// past it, at which point it is silently discarded.
//
// Override cannot fail at runtime and performs no I/O.
type Override struct {
	mu    sync.Mutex
	state OverrideState
}

// NewOverride creates an override controller with no override set.
func NewOverride() *Override {
	return &Override{}
}

// Set records an override unconditionally. Used for explicit "go back" and
// "proceed early" dashboard actions. Only the four ordered stages are
// accepted; StageError is never a valid override.
func (o *Override) Set(s Stage) error {
	if !s.Numeric() {
		return ErrInvalidOverride
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Override = s
	return nil
}

// Clear removes any override.
func (o *Override) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Override = 0
}

// Observe feeds a freshly resolved stage into the controller, clearing the
// override on strict forward progress past the overridden value.
func (o *Override) Observe(resolved Stage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = Transition(o.state, resolved)
}

// Display returns the stage the dashboard should show: the override when one
// is set, otherwise the given resolved stage.
func (o *Override) Display(resolved Stage) Stage {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Override.Numeric() {
		return o.state.Override
	}
	return resolved
}

// Value returns the current override and whether one is set.
func (o *Override) Value() (Stage, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.Override, o.state.Override.Numeric()
}
