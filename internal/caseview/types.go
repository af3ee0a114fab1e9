// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package caseview defines the merged, authoritative view of a case and the
// rule for overlaying cheap status polls onto the full case payload.
package caseview

import (
	"fmt"
	"time"
)

// Status is the backend case status.
type Status string

// Case statuses reported by the backend.
const (
	StatusOpen       Status = "OPEN"
	StatusProcessing Status = "PROCESSING"
	StatusGenerating Status = "GENERATING"
	StatusError      Status = "ERROR"
	StatusClosed     Status = "CLOSED"
)

// Settled reports whether the status is a quiet value that does not warrant
// further status polling.
func (s Status) Settled() bool {
	return s == StatusOpen || s == StatusError
}

// AIStatus is the per-document AI processing status.
type AIStatus string

// Document AI statuses reported by the backend.
const (
	AIPending    AIStatus = "PENDING"
	AIProcessing AIStatus = "PROCESSING"
	AISuccess    AIStatus = "SUCCESS"
	AIError      AIStatus = "ERROR"
)

// Terminal reports whether the document has finished AI processing,
// successfully or not.
func (s AIStatus) Terminal() bool {
	return s == AISuccess || s == AIError
}

// VersionSource records how a report version was produced.
type VersionSource string

// Report version sources.
const (
	SourcePreliminary VersionSource = "preliminary"
	SourceFinal       VersionSource = "final"
	SourceHuman       VersionSource = "human"
	SourceLegacy      VersionSource = "legacy"
)

// DocumentRef is a document attached to a case, with its AI processing state.
type DocumentRef struct {
	ID       string   `json:"id"`
	AIStatus AIStatus `json:"ai_status"`
	Filename string   `json:"filename,omitempty"`
}

// Version is one report version of a case.
type Version struct {
	ID            string        `json:"id"`
	VersionNumber int           `json:"version_number"`
	IsFinal       bool          `json:"is_final"`
	IsDraftActive bool          `json:"is_draft_active"`
	Source        VersionSource `json:"source"`
}

// CaseView is the merged view of one case: the full payload from the heavy
// channel with status fields overlaid from the most recent light poll.
type CaseView struct {
	ID             string        `json:"id"`
	Title          string        `json:"title,omitempty"`
	Status         Status        `json:"status"`
	Documents      []DocumentRef `json:"documents"`
	ReportVersions []Version     `json:"report_versions"`
	CreatedAt      time.Time     `json:"created_at,omitzero"`
	UpdatedAt      time.Time     `json:"updated_at,omitzero"`
}

// DocumentStatus is the per-document entry of the light status payload.
type DocumentStatus struct {
	ID       string   `json:"id"`
	AIStatus AIStatus `json:"ai_status"`
}

// StatusSnapshot is the light, status-only payload. It intentionally carries
// no report versions or file metadata.
type StatusSnapshot struct {
	Status    Status           `json:"status"`
	Documents []DocumentStatus `json:"documents"`
}

// Busy reports whether the case is actively being worked on by the backend:
// the case itself is processing or generating, or any document is still
// moving through AI processing.
func (v CaseView) Busy() bool {
	if v.Status == StatusGenerating || v.Status == StatusProcessing {
		return true
	}
	for _, d := range v.Documents {
		if !d.AIStatus.Terminal() {
			return true
		}
	}
	return false
}

// Busy reports whether the snapshot shows the case as actively worked on.
func (s StatusSnapshot) Busy() bool {
	if s.Status == StatusGenerating || s.Status == StatusProcessing {
		return true
	}
	for _, d := range s.Documents {
		if !d.AIStatus.Terminal() {
			return true
		}
	}
	return false
}

// FinalVersion returns the final report version, or nil if none exists.
func (v CaseView) FinalVersion() *Version {
	for i := range v.ReportVersions {
		if v.ReportVersions[i].IsFinal {
			return &v.ReportVersions[i]
		}
	}
	return nil
}

// ActiveDraft returns the non-final version currently under active editing,
// or nil if none exists.
func (v CaseView) ActiveDraft() *Version {
	for i := range v.ReportVersions {
		if !v.ReportVersions[i].IsFinal && v.ReportVersions[i].IsDraftActive {
			return &v.ReportVersions[i]
		}
	}
	return nil
}

// ValidateVersions checks the report version invariants: version numbers are
// unique and strictly increasing, at most one version is final, and at most
// one non-final version has an active draft.
func ValidateVersions(versions []Version) error {
	finals := 0
	drafts := 0
	prev := 0
	for _, ver := range versions {
		if ver.VersionNumber < 1 {
			return fmt.Errorf("version %s: number %d is below 1", ver.ID, ver.VersionNumber)
		}
		if ver.VersionNumber <= prev {
			return fmt.Errorf("version %s: number %d is not strictly increasing", ver.ID, ver.VersionNumber)
		}
		prev = ver.VersionNumber
		if ver.IsFinal {
			finals++
		} else if ver.IsDraftActive {
			drafts++
		}
	}
	if finals > 1 {
		return fmt.Errorf("%d final versions, at most one allowed", finals)
	}
	if drafts > 1 {
		return fmt.Errorf("%d active drafts, at most one allowed", drafts)
	}
	return nil
}
