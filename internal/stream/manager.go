// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/wingedpig/caseflow/internal/backend"
)

// ErrNoSession is returned when no session exists for a case.
var ErrNoSession = errors.New("no generation session for case")

// Opener opens a generation stream for a case. Implemented by *backend.Client.
type Opener interface {
	OpenGeneration(ctx context.Context, caseID string, kind backend.GenerationKind) (io.ReadCloser, error)
}

// FinishFunc is invoked once per session after it ends for any reason.
type FinishFunc func(caseID, kind string, outcome Outcome)

// Manager enforces at-most-one live generation session per case. Starting a
// new session cancels any still-open prior session for the same case.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opener   Opener
	onFinish FinishFunc
}

// NewManager creates a session manager that opens streams through opener.
func NewManager(opener Opener) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		opener:   opener,
	}
}

// OnFinish registers the callback invoked after each session ends. Must be
// set before the first Start.
func (m *Manager) OnFinish(fn FinishFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinish = fn
}

// Start opens a generation stream for the case, cancelling any prior live
// session first. The returned session is already consuming the stream.
//
// ctx covers the open phase only. Once the stream is open the session is
// detached from the caller and runs until done or an explicit Cancel, so an
// HTTP request that started a generation can return without killing it.
//
// A transport failure opening the stream is reported both as session state
// (StateError) and as the returned error, so callers can choose between
// state-driven and error-driven handling.
func (m *Manager) Start(ctx context.Context, caseID string, kind backend.GenerationKind) (*Session, error) {
	streamCtx, cancel := context.WithCancel(context.Background())
	s := newSession(uuid.NewString(), caseID, string(kind), cancel)

	m.mu.Lock()
	if prior, ok := m.sessions[caseID]; ok && prior.Live() {
		log.Printf("stream: cancelling prior session %s for case %s", prior.ID(), caseID)
		prior.Cancel()
	}
	m.sessions[caseID] = s
	onFinish := m.onFinish
	m.mu.Unlock()

	go func() {
		<-s.Done()
		if onFinish != nil {
			onFinish(caseID, string(kind), s.outcome())
		}
	}()

	stop := context.AfterFunc(ctx, cancel)
	body, err := m.opener.OpenGeneration(streamCtx, caseID, kind)
	stop()
	if err != nil {
		s.finish(err)
		return s, fmt.Errorf("start generation for case %s: %w", caseID, err)
	}

	go s.run(body)
	return s, nil
}

// Get returns the most recent session for a case, live or finished.
func (m *Manager) Get(caseID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[caseID]
	if !ok {
		return nil, ErrNoSession
	}
	return s, nil
}

// Cancel aborts the live session for a case, if any.
func (m *Manager) Cancel(caseID string) error {
	m.mu.Lock()
	s, ok := m.sessions[caseID]
	m.mu.Unlock()
	if !ok || !s.Live() {
		return ErrNoSession
	}
	s.Cancel()
	return nil
}

// CancelAll aborts every live session. Used at shutdown.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Cancel()
	}
}
