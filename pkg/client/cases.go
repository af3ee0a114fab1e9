// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// CaseClient provides access to case operations.
//
// Access this client through [Client.Cases]:
//
//	snap, err := client.Cases.Get(ctx, "case-123")
type CaseClient struct {
	c *Client
}

// List returns snapshots of all watched cases.
func (cc *CaseClient) List(ctx context.Context) ([]CaseSnapshot, error) {
	data, err := cc.c.get(ctx, "/api/v1/cases")
	if err != nil {
		return nil, err
	}

	var snaps []CaseSnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, fmt.Errorf("failed to parse cases: %w", err)
	}
	return snaps, nil
}

// Watch starts tracking a case. Watching an already-watched case is a no-op.
func (cc *CaseClient) Watch(ctx context.Context, caseID string) error {
	_, err := cc.c.postJSON(ctx, "/api/v1/cases", map[string]string{"case_id": caseID})
	return err
}

// Get returns the progress snapshot for a case.
func (cc *CaseClient) Get(ctx context.Context, caseID string) (*CaseSnapshot, error) {
	data, err := cc.c.get(ctx, "/api/v1/cases/"+url.PathEscape(caseID))
	if err != nil {
		return nil, err
	}

	var snap CaseSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse case: %w", err)
	}
	return &snap, nil
}

// Unwatch stops tracking a case.
func (cc *CaseClient) Unwatch(ctx context.Context, caseID string) error {
	_, err := cc.c.delete(ctx, "/api/v1/cases/"+url.PathEscape(caseID))
	return err
}

// Refresh forces an immediate full refetch of a case.
func (cc *CaseClient) Refresh(ctx context.Context, caseID string) error {
	_, err := cc.c.post(ctx, "/api/v1/cases/"+url.PathEscape(caseID)+"/refresh")
	return err
}

// SetOverride pins the displayed stage for a case. Stage numbers run 1
// (ingestion) through 4 (closure). Returns the updated snapshot.
func (cc *CaseClient) SetOverride(ctx context.Context, caseID string, stage int) (*CaseSnapshot, error) {
	data, err := cc.c.putJSON(ctx, "/api/v1/cases/"+url.PathEscape(caseID)+"/override", map[string]int{"stage": stage})
	if err != nil {
		return nil, err
	}

	var snap CaseSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse case: %w", err)
	}
	return &snap, nil
}

// ClearOverride removes the manual stage override. Returns the updated snapshot.
func (cc *CaseClient) ClearOverride(ctx context.Context, caseID string) (*CaseSnapshot, error) {
	data, err := cc.c.delete(ctx, "/api/v1/cases/"+url.PathEscape(caseID)+"/override")
	if err != nil {
		return nil, err
	}

	var snap CaseSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse case: %w", err)
	}
	return &snap, nil
}

// Generate starts a generation stream for a case. Kind is one of "analysis",
// "preliminary", or "report". A live session for the same case is cancelled
// first. Returns the initial session snapshot.
func (cc *CaseClient) Generate(ctx context.Context, caseID, kind string) (*GenerationSnapshot, error) {
	data, err := cc.c.postJSON(ctx, "/api/v1/cases/"+url.PathEscape(caseID)+"/generate", map[string]string{"kind": kind})
	if err != nil {
		return nil, err
	}

	var snap GenerationSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse generation session: %w", err)
	}
	return &snap, nil
}

// CancelGeneration aborts the live generation session for a case.
// Cancellation is not an error: the session keeps its partial output.
func (cc *CaseClient) CancelGeneration(ctx context.Context, caseID string) error {
	_, err := cc.c.delete(ctx, "/api/v1/cases/"+url.PathEscape(caseID)+"/generate")
	return err
}

// Generation returns the most recent generation session for a case.
func (cc *CaseClient) Generation(ctx context.Context, caseID string) (*GenerationSnapshot, error) {
	data, err := cc.c.get(ctx, "/api/v1/cases/"+url.PathEscape(caseID)+"/generation")
	if err != nil {
		return nil, err
	}

	var snap GenerationSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse generation session: %w", err)
	}
	return &snap, nil
}

// Status returns daemon health information.
func (cc *CaseClient) Status(ctx context.Context) (*StatusInfo, error) {
	data, err := cc.c.get(ctx, "/api/v1/status")
	if err != nil {
		return nil, err
	}

	var info StatusInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &info, nil
}
