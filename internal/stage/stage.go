// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package stage derives the discrete workflow stage of a case from its merged
// view, and tracks user-initiated stage overrides.
package stage

import (
	"github.com/wingedpig/caseflow/internal/caseview"
)

// Stage is a discrete workflow position. The four in-flow stages are ordered;
// StageError sits outside the ordering.
type Stage int

// Workflow stages.
const (
	StageError        Stage = 0
	StageIngestion    Stage = 1
	StageIntelligence Stage = 2
	StageReview       Stage = 3
	StageClosure      Stage = 4
)

// String returns the stage label used in API payloads and logs.
func (s Stage) String() string {
	switch s {
	case StageIngestion:
		return "ingestion"
	case StageIntelligence:
		return "intelligence"
	case StageReview:
		return "review"
	case StageClosure:
		return "closure"
	default:
		return "error"
	}
}

// Numeric reports whether the stage is one of the four ordered in-flow stages.
func (s Stage) Numeric() bool {
	return s >= StageIngestion && s <= StageClosure
}

// Resolve computes the workflow stage for a merged case view. It is pure and
// deterministic: rules are evaluated in order and the first match wins.
//
//  1. Backend error → StageError.
//  2. Closed case or final version → StageClosure. Callers that redirect
//     closed cases to the summary view should check Closed first.
//  3. No non-preliminary report version and no generation running →
//     StageIngestion. This covers the empty document list, documents still
//     processing, and the all-documents-failed dead end.
//  4. Generation running, or documents reprocessing after a report exists →
//     StageIntelligence.
//  5. A non-final, non-preliminary version exists → StageReview.
//  6. Otherwise → StageClosure.
func Resolve(v caseview.CaseView) Stage {
	if v.Status == caseview.StatusError {
		return StageError
	}
	if Closed(v) {
		return StageClosure
	}
	if !hasNonPreliminaryVersion(v) && v.Status != caseview.StatusGenerating {
		return StageIngestion
	}
	if inIntelligence(v) {
		return StageIntelligence
	}
	if hasDraftableVersion(v) {
		return StageReview
	}
	return StageClosure
}

// Closed reports the redirect condition: the case is closed or has a final
// report version. The resolver treats this as StageClosure; the dashboard
// sends these cases to the summary view instead of the in-flow stages.
func Closed(v caseview.CaseView) bool {
	return v.Status == caseview.StatusClosed || v.FinalVersion() != nil
}

// inIntelligence: the backend is generating, or documents are moving through
// AI processing while an existing report version implies a rerun is coming.
func inIntelligence(v caseview.CaseView) bool {
	if v.Status == caseview.StatusGenerating {
		return true
	}
	if len(v.ReportVersions) == 0 {
		return false
	}
	for _, d := range v.Documents {
		if d.AIStatus == caseview.AIPending || d.AIStatus == caseview.AIProcessing {
			return true
		}
	}
	return false
}

func hasNonPreliminaryVersion(v caseview.CaseView) bool {
	for _, ver := range v.ReportVersions {
		if ver.Source != caseview.SourcePreliminary {
			return true
		}
	}
	return false
}

// hasDraftableVersion reports whether a non-final, non-preliminary version
// exists that a reviewer could still be working on.
func hasDraftableVersion(v caseview.CaseView) bool {
	for _, ver := range v.ReportVersions {
		if !ver.IsFinal && ver.Source != caseview.SourcePreliminary {
			return true
		}
	}
	return false
}
