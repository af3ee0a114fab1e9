// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/caseflow/internal/caseview"
)

func TestFetchCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cases/case-1", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode(caseview.CaseView{
			ID:     "case-1",
			Status: caseview.StatusOpen,
			Documents: []caseview.DocumentRef{
				{ID: "d1", AIStatus: caseview.AISuccess, Filename: "brief.pdf"},
			},
			ReportVersions: []caseview.Version{
				{ID: "v1", VersionNumber: 1, Source: caseview.SourceFinal},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	view, err := c.FetchCase(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, "case-1", view.ID)
	assert.Equal(t, "brief.pdf", view.Documents[0].Filename)
	assert.Len(t, view.ReportVersions, 1)
}

func TestFetchCase_LogsVersionInvariantViolation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(caseview.CaseView{
			ID:     "case-1",
			Status: caseview.StatusOpen,
			ReportVersions: []caseview.Version{
				{ID: "v1", VersionNumber: 1, IsFinal: true},
				{ID: "v2", VersionNumber: 2, IsFinal: true},
			},
		})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	// A backend bug in the version list is logged, not fatal.
	c := New(srv.URL)
	view, err := c.FetchCase(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Len(t, view.ReportVersions, 2)
	assert.Contains(t, buf.String(), "report versions")
	assert.Contains(t, buf.String(), "final")
}

func TestFetchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cases/case-1/status", r.URL.Path)
		json.NewEncoder(w).Encode(caseview.StatusSnapshot{
			Status:    caseview.StatusGenerating,
			Documents: []caseview.DocumentStatus{{ID: "d1", AIStatus: caseview.AIProcessing}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	snap, err := c.FetchStatus(context.Background(), "case-1")
	require.NoError(t, err)
	assert.Equal(t, caseview.StatusGenerating, snap.Status)
	assert.True(t, snap.Busy())
}

func TestFetchCase_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "case not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.FetchCase(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestOpenGeneration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cases/case-1/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body struct {
			Kind GenerationKind `json:"kind"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, GenerateReport, body.Kind)

		w.Write([]byte(`{"type":"done"}` + "\n"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	rc, err := c.OpenGeneration(context.Background(), "case-1", GenerateReport)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"done"}`+"\n", string(data))
}

func TestOpenGeneration_NonOKIsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "generation already running", http.StatusConflict)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.OpenGeneration(context.Background(), "case-1", GenerateAnalysis)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
	assert.Contains(t, err.Error(), "generation already running")
}
