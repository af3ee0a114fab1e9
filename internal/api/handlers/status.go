// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"
	"time"

	"github.com/wingedpig/caseflow/internal/engine"
)

// StatusHandler reports daemon health.
type StatusHandler struct {
	engine  *engine.Engine
	version string
	started time.Time
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(e *engine.Engine, version string) *StatusHandler {
	return &StatusHandler{engine: e, version: version, started: time.Now()}
}

// Status returns daemon version, uptime, and watched-case count.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":       h.version,
		"uptime":        time.Since(h.started).String(),
		"watched_cases": len(h.engine.Watched()),
	})
}
