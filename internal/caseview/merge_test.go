// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package caseview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func heavyFixture() CaseView {
	return CaseView{
		ID:     "case-1",
		Title:  "Smith v. Jones",
		Status: StatusProcessing,
		Documents: []DocumentRef{
			{ID: "d1", AIStatus: AIPending, Filename: "complaint.pdf"},
			{ID: "d2", AIStatus: AISuccess, Filename: "answer.pdf"},
		},
		ReportVersions: []Version{
			{ID: "v1", VersionNumber: 1, Source: SourcePreliminary},
		},
	}
}

func TestMerge_LightWinsForStatusFields(t *testing.T) {
	heavy := heavyFixture()
	light := &StatusSnapshot{
		Status: StatusOpen,
		Documents: []DocumentStatus{
			{ID: "d1", AIStatus: AISuccess},
			{ID: "d2", AIStatus: AISuccess},
		},
	}

	merged := Merge(heavy, light)

	assert.Equal(t, StatusOpen, merged.Status)
	assert.Equal(t, AISuccess, merged.Documents[0].AIStatus)
	// Heavy-only fields are untouched.
	assert.Equal(t, "complaint.pdf", merged.Documents[0].Filename)
	assert.Equal(t, heavy.ReportVersions, merged.ReportVersions)
}

func TestMerge_NilSnapshotIsIdentity(t *testing.T) {
	heavy := heavyFixture()
	merged := Merge(heavy, nil)
	assert.True(t, Equal(heavy, merged))
}

func TestMerge_SnapshotOnlyDocumentIgnored(t *testing.T) {
	heavy := heavyFixture()
	light := &StatusSnapshot{
		Status: StatusProcessing,
		Documents: []DocumentStatus{
			{ID: "d3", AIStatus: AIProcessing},
		},
	}

	merged := Merge(heavy, light)

	require.Len(t, merged.Documents, 2)
	// d1 keeps its heavy-fetch status since the snapshot doesn't mention it.
	assert.Equal(t, AIPending, merged.Documents[0].AIStatus)
}

func TestMerge_DoesNotAliasHeavySlices(t *testing.T) {
	heavy := heavyFixture()
	light := &StatusSnapshot{
		Status:    StatusOpen,
		Documents: []DocumentStatus{{ID: "d1", AIStatus: AIError}},
	}

	merged := Merge(heavy, light)
	merged.Documents[0].AIStatus = AIProcessing
	merged.ReportVersions[0].IsFinal = true

	assert.Equal(t, AIPending, heavy.Documents[0].AIStatus)
	assert.False(t, heavy.ReportVersions[0].IsFinal)
}

func TestBusy(t *testing.T) {
	tests := []struct {
		name string
		view CaseView
		busy bool
	}{
		{"open with settled docs", CaseView{Status: StatusOpen, Documents: []DocumentRef{{ID: "d1", AIStatus: AISuccess}}}, false},
		{"generating", CaseView{Status: StatusGenerating}, true},
		{"processing", CaseView{Status: StatusProcessing}, true},
		{"open with pending doc", CaseView{Status: StatusOpen, Documents: []DocumentRef{{ID: "d1", AIStatus: AIPending}}}, true},
		{"open with processing doc", CaseView{Status: StatusOpen, Documents: []DocumentRef{{ID: "d1", AIStatus: AIProcessing}}}, true},
		{"error with failed doc", CaseView{Status: StatusError, Documents: []DocumentRef{{ID: "d1", AIStatus: AIError}}}, false},
		{"no documents", CaseView{Status: StatusOpen}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.busy, tt.view.Busy())
		})
	}
}

func TestStatusSettled(t *testing.T) {
	assert.True(t, StatusOpen.Settled())
	assert.True(t, StatusError.Settled())
	assert.False(t, StatusProcessing.Settled())
	assert.False(t, StatusGenerating.Settled())
	assert.False(t, StatusClosed.Settled())
}

func TestFinalVersionAndActiveDraft(t *testing.T) {
	view := CaseView{
		ReportVersions: []Version{
			{ID: "v1", VersionNumber: 1, Source: SourcePreliminary},
			{ID: "v2", VersionNumber: 2, IsDraftActive: true, Source: SourceFinal},
		},
	}

	assert.Nil(t, view.FinalVersion())
	draft := view.ActiveDraft()
	require.NotNil(t, draft)
	assert.Equal(t, "v2", draft.ID)

	view.ReportVersions[1].IsFinal = true
	view.ReportVersions[1].IsDraftActive = false
	final := view.FinalVersion()
	require.NotNil(t, final)
	assert.Equal(t, "v2", final.ID)
	assert.Nil(t, view.ActiveDraft())
}

func TestValidateVersions(t *testing.T) {
	valid := []Version{
		{ID: "v1", VersionNumber: 1, Source: SourcePreliminary},
		{ID: "v2", VersionNumber: 2, IsDraftActive: true, Source: SourceFinal},
		{ID: "v3", VersionNumber: 5, IsFinal: true, Source: SourceHuman},
	}
	assert.NoError(t, ValidateVersions(valid))
	assert.NoError(t, ValidateVersions(nil))

	dupNumbers := []Version{
		{ID: "v1", VersionNumber: 1},
		{ID: "v2", VersionNumber: 1},
	}
	assert.Error(t, ValidateVersions(dupNumbers))

	twoFinals := []Version{
		{ID: "v1", VersionNumber: 1, IsFinal: true},
		{ID: "v2", VersionNumber: 2, IsFinal: true},
	}
	assert.Error(t, ValidateVersions(twoFinals))

	twoDrafts := []Version{
		{ID: "v1", VersionNumber: 1, IsDraftActive: true},
		{ID: "v2", VersionNumber: 2, IsDraftActive: true},
	}
	assert.Error(t, ValidateVersions(twoDrafts))

	belowOne := []Version{{ID: "v0", VersionNumber: 0}}
	assert.Error(t, ValidateVersions(belowOne))
}
