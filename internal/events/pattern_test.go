// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternMatcher_Match(t *testing.T) {
	pm := NewPatternMatcher()

	tests := []struct {
		eventType string
		pattern   string
		want      bool
	}{
		{EventGenerationStarted, EventGenerationStarted, true},
		{EventGenerationStarted, "case.generation.*", true},
		{EventGenerationFailed, "case.generation.*", true},
		{EventViewUpdated, "case.generation.*", false},
		{EventViewUpdated, "*.updated", true},
		{EventStageChanged, "*.updated", false},
		{EventConfigReloaded, "*", true},
		{EventStageChanged, "", false},
		{"", "*", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, pm.Match(tt.eventType, tt.pattern))
		})
	}
}

func TestPatternMatcher_Compile(t *testing.T) {
	pm := NewPatternMatcher()

	compiled, err := pm.Compile("case.*")
	assert.NoError(t, err)
	assert.True(t, compiled.Match(EventStageChanged))
	assert.False(t, compiled.Match(EventConfigReloaded))

	_, err = pm.Compile("")
	assert.Error(t, err)
}
