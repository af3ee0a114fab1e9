// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"time"
)

// Event is an entry from the daemon's event log.
type Event struct {
	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Type is the event type (e.g., "case.view.updated", "case.stage.changed").
	Type string `json:"type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Case is the case the event relates to, if any.
	Case string `json:"case,omitempty"`

	// Payload contains event-specific data.
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// DocumentRef is a document attached to a case.
type DocumentRef struct {
	ID       string `json:"id"`
	AIStatus string `json:"ai_status"`
	Filename string `json:"filename,omitempty"`
}

// Version is one report version of a case.
type Version struct {
	ID            string `json:"id"`
	VersionNumber int    `json:"version_number"`
	IsFinal       bool   `json:"is_final"`
	IsDraftActive bool   `json:"is_draft_active"`
	Source        string `json:"source"`
}

// CaseView is the full backend payload for a case as merged by the daemon.
type CaseView struct {
	ID             string        `json:"id"`
	Title          string        `json:"title,omitempty"`
	Status         string        `json:"status"`
	Documents      []DocumentRef `json:"documents"`
	ReportVersions []Version     `json:"report_versions"`
	CreatedAt      time.Time     `json:"created_at,omitzero"`
	UpdatedAt      time.Time     `json:"updated_at,omitzero"`
}

// GenerationSnapshot is a point-in-time copy of a generation session.
type GenerationSnapshot struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	Kind      string    `json:"kind"`
	Thoughts  string    `json:"thoughts"`
	Content   string    `json:"content"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// CaseSnapshot is the daemon's full answer for one watched case.
type CaseSnapshot struct {
	// View is the merged backend payload.
	View CaseView `json:"view"`

	// ResolvedStage is the stage derived from the view ("ingestion",
	// "intelligence", "review", "closure", or "error").
	ResolvedStage string `json:"resolved_stage"`
	ResolvedNum   int    `json:"resolved_num"`

	// DisplayStage is the stage shown to users: the resolved stage unless a
	// manual override is pinned.
	DisplayStage string `json:"display_stage"`
	DisplayNum   int    `json:"display_num"`

	// OverrideSet reports whether a manual override is active.
	OverrideSet bool `json:"override_set"`

	Busy   bool `json:"busy"`
	Closed bool `json:"closed"`

	// ActiveDraft is the version currently under active editing, if any.
	ActiveDraft *Version `json:"active_draft,omitempty"`

	// PollError is the last full-fetch error, empty when healthy.
	PollError string `json:"poll_error,omitempty"`

	// AnalysisStale and PreliminaryStale report whether the corresponding
	// generated artifact predates the current successful-document set.
	AnalysisStale    bool `json:"analysis_stale"`
	PreliminaryStale bool `json:"preliminary_stale"`

	// Generation is the most recent generation session, if any.
	Generation *GenerationSnapshot `json:"generation,omitempty"`
}

// StatusInfo reports daemon health.
type StatusInfo struct {
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	WatchedCases int    `json:"watched_cases"`
}
