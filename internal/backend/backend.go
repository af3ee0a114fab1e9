// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package backend is the HTTP client for the case-management backend. It
// exposes the three read paths the progress engine needs: the heavy full-case
// fetch, the light status-only fetch, and the generation stream.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/wingedpig/caseflow/internal/caseview"
)

// GenerationKind selects which artifact the backend should generate.
type GenerationKind string

// Generation kinds accepted by the backend.
const (
	GenerateAnalysis    GenerationKind = "analysis"
	GeneratePreliminary GenerationKind = "preliminary"
	GenerateReport      GenerationKind = "report"
)

// Client talks to the case-management backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// streamClient has no overall timeout: generation streams run until the
	// backend finishes or the caller cancels.
	streamClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client for fetch requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout for heavy and light fetches. It does not apply
// to generation streams.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// New creates a backend client rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		streamClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchCase performs the heavy fetch: the full case payload with document
// metadata and all report versions.
func (c *Client) FetchCase(ctx context.Context, caseID string) (caseview.CaseView, error) {
	var view caseview.CaseView
	if err := c.getJSON(ctx, fmt.Sprintf("/cases/%s", caseID), &view); err != nil {
		return caseview.CaseView{}, fmt.Errorf("fetch case %s: %w", caseID, err)
	}
	if view.ID == "" {
		view.ID = caseID
	}
	// The backend owns the version invariants; a violation here is its bug,
	// not ours. Log it and keep the payload so the dashboard stays live.
	if err := caseview.ValidateVersions(view.ReportVersions); err != nil {
		log.Printf("backend [%s]: report versions: %v", caseID, err)
	}
	return view, nil
}

// FetchStatus performs the light fetch: status and per-document AI statuses
// only.
func (c *Client) FetchStatus(ctx context.Context, caseID string) (caseview.StatusSnapshot, error) {
	var snap caseview.StatusSnapshot
	if err := c.getJSON(ctx, fmt.Sprintf("/cases/%s/status", caseID), &snap); err != nil {
		return caseview.StatusSnapshot{}, fmt.Errorf("fetch status %s: %w", caseID, err)
	}
	return snap, nil
}

// OpenGeneration triggers a generation job and returns the NDJSON response
// body. The caller owns the body and must close it; cancelling ctx aborts the
// read. A non-2xx response before any body is read is a transport failure.
func (c *Client) OpenGeneration(ctx context.Context, caseID string, kind GenerationKind) (io.ReadCloser, error) {
	payload, err := json.Marshal(struct {
		Kind GenerationKind `json:"kind"`
	}{Kind: kind})
	if err != nil {
		return nil, fmt.Errorf("marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/cases/%s/generate", c.baseURL, caseID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open generation stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("open generation stream: backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp.Body, nil
}

// getJSON performs a GET and decodes the raw JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
