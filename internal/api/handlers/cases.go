// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wingedpig/caseflow/internal/backend"
	"github.com/wingedpig/caseflow/internal/engine"
	"github.com/wingedpig/caseflow/internal/stage"
	"github.com/wingedpig/caseflow/internal/stream"
)

// CaseHandler handles case-related API requests.
type CaseHandler struct {
	engine *engine.Engine
}

// NewCaseHandler creates a new case handler.
func NewCaseHandler(e *engine.Engine) *CaseHandler {
	return &CaseHandler{engine: e}
}

// List returns snapshots of all watched cases.
func (h *CaseHandler) List(w http.ResponseWriter, r *http.Request) {
	ids := h.engine.Watched()

	snapshots := make([]engine.CaseSnapshot, 0, len(ids))
	for _, id := range ids {
		snap, err := h.engine.Snapshot(id)
		if err != nil {
			// Unwatched between listing and snapshotting; skip.
			continue
		}
		snapshots = append(snapshots, snap)
	}

	WriteJSON(w, http.StatusOK, snapshots)
}

// Watch starts tracking a case.
func (h *CaseHandler) Watch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseID string `json:"case_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}
	if req.CaseID == "" {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "case_id is required")
		return
	}

	if err := h.engine.Watch(req.CaseID); err != nil {
		WriteError(w, http.StatusInternalServerError, ErrCaseError, err.Error())
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{"case_id": req.CaseID})
}

// Get returns the snapshot for one case.
func (h *CaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	snap, err := h.engine.Snapshot(caseID)
	if err != nil {
		writeCaseError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, snap)
}

// Unwatch stops tracking a case.
func (h *CaseHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	if err := h.engine.Unwatch(caseID); err != nil {
		writeCaseError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"case_id": caseID})
}

// Refresh forces a full refetch of a case.
func (h *CaseHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	if err := h.engine.Refresh(caseID); err != nil {
		writeCaseError(w, err)
		return
	}

	WriteJSON(w, http.StatusAccepted, map[string]string{"case_id": caseID})
}

// SetOverride records a manual stage override.
func (h *CaseHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	var req struct {
		Stage int `json:"stage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	if err := h.engine.SetOverride(caseID, req.Stage); err != nil {
		if errors.Is(err, stage.ErrInvalidOverride) {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
			return
		}
		writeCaseError(w, err)
		return
	}

	snap, err := h.engine.Snapshot(caseID)
	if err != nil {
		writeCaseError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// ClearOverride removes a manual stage override.
func (h *CaseHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	if err := h.engine.ClearOverride(caseID); err != nil {
		writeCaseError(w, err)
		return
	}

	snap, err := h.engine.Snapshot(caseID)
	if err != nil {
		writeCaseError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// Generate starts a generation stream for a case. A live session for the
// same case is cancelled first.
func (h *CaseHandler) Generate(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	var req struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid request body")
		return
	}

	kind, ok := parseKind(req.Kind)
	if !ok {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "kind must be one of: analysis, preliminary, report")
		return
	}

	s, err := h.engine.Generate(r.Context(), caseID, kind)
	if err != nil {
		if errors.Is(err, engine.ErrNotWatched) {
			writeCaseError(w, err)
			return
		}
		WriteError(w, http.StatusBadGateway, ErrGenerationError, err.Error())
		return
	}

	WriteJSON(w, http.StatusAccepted, s.Snapshot())
}

// CancelGeneration aborts the live generation session for a case.
func (h *CaseHandler) CancelGeneration(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	if err := h.engine.CancelGeneration(caseID); err != nil {
		if errors.Is(err, stream.ErrNoSession) {
			WriteError(w, http.StatusNotFound, ErrNotFound, "no generation session for case")
			return
		}
		writeCaseError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"case_id": caseID})
}

// Generation returns the snapshot of the most recent generation session.
func (h *CaseHandler) Generation(w http.ResponseWriter, r *http.Request) {
	caseID := mux.Vars(r)["id"]

	s, err := h.engine.Streams().Get(caseID)
	if err != nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "no generation session for case")
		return
	}

	WriteJSON(w, http.StatusOK, s.Snapshot())
}

func parseKind(s string) (backend.GenerationKind, bool) {
	switch backend.GenerationKind(s) {
	case backend.GenerateAnalysis, backend.GeneratePreliminary, backend.GenerateReport:
		return backend.GenerationKind(s), true
	}
	return "", false
}

func writeCaseError(w http.ResponseWriter, err error) {
	if errors.Is(err, engine.ErrNotWatched) {
		WriteError(w, http.StatusNotFound, ErrNotFound, err.Error())
		return
	}
	WriteError(w, http.StatusInternalServerError, ErrCaseError, err.Error())
}
