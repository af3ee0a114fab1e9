// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/wingedpig/caseflow/internal/stream"
)

// wsMessage is the envelope sent over the generation WebSocket.
type wsMessage struct {
	Type     string           `json:"type"` // "snapshot" or "update"
	Snapshot *stream.Snapshot `json:"snapshot,omitempty"`
	Event    *stream.Event    `json:"event,omitempty"`
	State    stream.State     `json:"state,omitempty"`
}

// GenerationWS streams a case's live generation session over a WebSocket:
// one snapshot message to catch the client up, then incremental updates.
func (h *CaseHandler) GenerationWS(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	s, err := h.engine.Streams().Get(caseID)
	if err != nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "no generation session for case")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Subscribe before snapshotting so no update falls between the two.
	updates := s.Subscribe()
	defer s.Unsubscribe(updates)

	snap := s.Snapshot()
	if err := conn.WriteJSON(wsMessage{Type: "snapshot", Snapshot: &snap}); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(54 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				// Session finished; send the final snapshot and close.
				final := s.Snapshot()
				conn.WriteJSON(wsMessage{Type: "snapshot", Snapshot: &final})
				return
			}
			msg := wsMessage{Type: "update", State: u.State}
			if u.Event.Type != "" {
				ev := u.Event
				msg.Event = &ev
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-s.Done():
			final := s.Snapshot()
			conn.WriteJSON(wsMessage{Type: "snapshot", Snapshot: &final})
			return
		case <-pingTicker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
