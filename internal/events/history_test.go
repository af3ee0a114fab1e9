// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHistory_AddAndQuery(t *testing.T) {
	h := NewEventHistory(EventHistoryConfig{MaxEvents: 100})
	defer h.Close()

	now := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, h.Add(Event{
			ID:        fmt.Sprintf("e%d", i),
			Type:      EventViewUpdated,
			Case:      "case-1",
			Timestamp: now.Add(time.Duration(i) * time.Second),
		}))
	}

	result, err := h.Query(EventFilter{})
	require.NoError(t, err)
	assert.Len(t, result, 5)

	// Oldest first.
	assert.Equal(t, "e0", result[0].ID)
	assert.Equal(t, "e4", result[4].ID)
}

func TestEventHistory_Limit(t *testing.T) {
	h := NewEventHistory(EventHistoryConfig{MaxEvents: 100})
	defer h.Close()

	now := time.Now()
	for i := 0; i < 10; i++ {
		h.Add(Event{ID: fmt.Sprintf("e%d", i), Type: EventViewUpdated, Timestamp: now.Add(time.Duration(i) * time.Second)})
	}

	result, err := h.Query(EventFilter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, result, 3)

	// Limit keeps the newest events.
	assert.Equal(t, "e7", result[0].ID)
	assert.Equal(t, "e9", result[2].ID)
}

func TestEventHistory_MaxEventsEviction(t *testing.T) {
	h := NewEventHistory(EventHistoryConfig{MaxEvents: 3})
	defer h.Close()

	now := time.Now()
	for i := 0; i < 5; i++ {
		h.Add(Event{ID: fmt.Sprintf("e%d", i), Type: EventViewUpdated, Timestamp: now})
	}

	result, err := h.Query(EventFilter{})
	require.NoError(t, err)
	assert.Len(t, result, 3)
	assert.Equal(t, "e2", result[0].ID)
}

func TestEventHistory_SinceUntil(t *testing.T) {
	h := NewEventHistory(EventHistoryConfig{MaxEvents: 100})
	defer h.Close()

	base := time.Now()
	for i := 0; i < 5; i++ {
		h.Add(Event{ID: fmt.Sprintf("e%d", i), Type: EventViewUpdated, Timestamp: base.Add(time.Duration(i) * time.Minute)})
	}

	result, err := h.Query(EventFilter{
		Since: base.Add(30 * time.Second),
		Until: base.Add(3*time.Minute + 30*time.Second),
	})
	require.NoError(t, err)
	assert.Len(t, result, 3)
}

func TestEventHistory_Prune(t *testing.T) {
	h := NewEventHistory(EventHistoryConfig{MaxEvents: 100, MaxAge: time.Minute})
	defer h.Close()

	h.Add(Event{ID: "old", Type: EventViewUpdated, Timestamp: time.Now().Add(-2 * time.Minute)})
	h.Add(Event{ID: "new", Type: EventViewUpdated, Timestamp: time.Now()})

	require.NoError(t, h.Prune())

	result, err := h.Query(EventFilter{})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "new", result[0].ID)
}
