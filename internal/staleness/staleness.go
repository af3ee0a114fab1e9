// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package staleness decides whether a generated artifact still matches the
// document set it was produced from.
package staleness

import (
	"sort"
	"strings"
	"sync"

	"github.com/wingedpig/caseflow/internal/caseview"
)

// Fingerprint derives a content fingerprint from the documents that have been
// successfully processed. Two document sets with the same successful IDs
// produce the same fingerprint regardless of ordering.
func Fingerprint(docs []caseview.DocumentRef) string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.AIStatus == caseview.AISuccess {
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	return strings.Join(ids, "\n")
}

// Tracker records the fingerprint captured when each artifact was generated.
// It applies identically to document-analysis and preliminary-report
// artifacts; the artifact ID is opaque to the tracker.
type Tracker struct {
	mu       sync.RWMutex
	captured map[string]string
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{captured: make(map[string]string)}
}

// Capture stores the fingerprint current at the artifact's generation time.
func (t *Tracker) Capture(artifactID, fingerprint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.captured[artifactID] = fingerprint
}

// IsStale reports whether the artifact's captured fingerprint differs from the
// current one. An artifact never captured is stale.
func (t *Tracker) IsStale(artifactID, current string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	captured, ok := t.captured[artifactID]
	if !ok {
		return true
	}
	return captured != current
}

// Forget drops the captured fingerprint for an artifact.
func (t *Tracker) Forget(artifactID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.captured, artifactID)
}
