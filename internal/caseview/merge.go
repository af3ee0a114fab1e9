// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package caseview

// Merge overlays a status snapshot onto a heavy case payload. The snapshot is
// fresher for Status and per-document AIStatus, so those two fields always win;
// everything else (report versions, filenames, metadata) comes from the heavy
// payload, which the light channel never carries.
//
// Documents that appear only in the snapshot are ignored: there is no metadata
// to show for them until the next heavy fetch. Documents missing from the
// snapshot keep their heavy-fetch status.
func Merge(heavy CaseView, light *StatusSnapshot) CaseView {
	merged := heavy
	merged.Documents = make([]DocumentRef, len(heavy.Documents))
	copy(merged.Documents, heavy.Documents)
	merged.ReportVersions = make([]Version, len(heavy.ReportVersions))
	copy(merged.ReportVersions, heavy.ReportVersions)

	if light == nil {
		return merged
	}

	merged.Status = light.Status

	byID := make(map[string]AIStatus, len(light.Documents))
	for _, d := range light.Documents {
		byID[d.ID] = d.AIStatus
	}
	for i := range merged.Documents {
		if st, ok := byID[merged.Documents[i].ID]; ok {
			merged.Documents[i].AIStatus = st
		}
	}
	return merged
}

// Equal reports whether two case views are identical in every field the
// engine reacts to. Used to suppress no-op change notifications.
func Equal(a, b CaseView) bool {
	if a.ID != b.ID || a.Title != b.Title || a.Status != b.Status {
		return false
	}
	if !a.CreatedAt.Equal(b.CreatedAt) || !a.UpdatedAt.Equal(b.UpdatedAt) {
		return false
	}
	if len(a.Documents) != len(b.Documents) || len(a.ReportVersions) != len(b.ReportVersions) {
		return false
	}
	for i := range a.Documents {
		if a.Documents[i] != b.Documents[i] {
			return false
		}
	}
	for i := range a.ReportVersions {
		if a.ReportVersions[i] != b.ReportVersions[i] {
			return false
		}
	}
	return true
}
