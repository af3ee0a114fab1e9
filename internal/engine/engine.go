// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package engine orchestrates the case-progress machinery: one poller per
// watched case feeding the stage resolver, the manual-override layer, the
// staleness tracker, and the generation stream manager, with every change
// published on the event bus.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wingedpig/caseflow/internal/backend"
	"github.com/wingedpig/caseflow/internal/caseview"
	"github.com/wingedpig/caseflow/internal/events"
	"github.com/wingedpig/caseflow/internal/poller"
	"github.com/wingedpig/caseflow/internal/staleness"
	"github.com/wingedpig/caseflow/internal/stage"
	"github.com/wingedpig/caseflow/internal/stream"
)

// ErrNotWatched is returned for operations on a case the engine isn't watching.
var ErrNotWatched = errors.New("case is not being watched")

// Backend combines the fetch and stream-open surfaces the engine needs.
// Implemented by *backend.Client.
type Backend interface {
	poller.Backend
	stream.Opener
}

// Options configures an Engine.
type Options struct {
	// PollInterval is the light-poll cadence passed to each case poller.
	PollInterval time.Duration
}

// CaseSnapshot is the engine's full answer for one case.
type CaseSnapshot struct {
	View          caseview.CaseView `json:"view"`
	ResolvedStage string            `json:"resolved_stage"`
	ResolvedNum   int               `json:"resolved_num"`
	DisplayStage  string            `json:"display_stage"`
	DisplayNum    int               `json:"display_num"`
	OverrideSet   bool              `json:"override_set"`
	Busy          bool              `json:"busy"`
	Closed        bool              `json:"closed"`
	PollError     string            `json:"poll_error,omitempty"`

	// ActiveDraft is the version currently under active editing, if any.
	ActiveDraft *caseview.Version `json:"active_draft,omitempty"`

	// Staleness of the two generated artifact kinds against the current
	// successful-document fingerprint.
	AnalysisStale    bool `json:"analysis_stale"`
	PreliminaryStale bool `json:"preliminary_stale"`

	Generation *stream.Snapshot `json:"generation,omitempty"`
}

type caseState struct {
	poller   *poller.Poller
	override *stage.Override
	tracker  *staleness.Tracker

	mu       sync.Mutex
	resolved stage.Stage
	display  stage.Stage
	haveView bool
}

// Engine manages the progress state of all watched cases.
type Engine struct {
	backend      Backend
	bus          events.EventBus
	streams      *stream.Manager
	pollInterval time.Duration

	mu     sync.Mutex
	cases  map[string]*caseState
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an engine over the given backend and event bus.
func New(b Backend, bus events.EventBus, opts Options) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		backend:      b,
		bus:          bus,
		pollInterval: opts.PollInterval,
		cases:        make(map[string]*caseState),
		ctx:          ctx,
		cancel:       cancel,
	}
	e.streams = stream.NewManager(b)
	e.streams.OnFinish(e.generationFinished)
	return e
}

// Streams exposes the generation session manager for the API layer.
func (e *Engine) Streams() *stream.Manager {
	return e.streams
}

// Watch starts tracking a case: an immediate heavy fetch, then status polling
// while busy. Watching an already-watched case is a no-op.
func (e *Engine) Watch(caseID string) error {
	if caseID == "" {
		return fmt.Errorf("empty case id")
	}

	e.mu.Lock()
	if _, ok := e.cases[caseID]; ok {
		e.mu.Unlock()
		return nil
	}

	cs := &caseState{
		override: stage.NewOverride(),
		tracker:  staleness.NewTracker(),
	}
	cs.poller = poller.New(caseID, e.backend, poller.Options{
		Interval: e.pollInterval,
		OnChange: func(v caseview.CaseView) { e.viewChanged(caseID, v) },
		OnError: func(err error) {
			e.publish(events.Event{
				Type:    events.EventPollError,
				Case:    caseID,
				Payload: map[string]interface{}{"error": err.Error()},
			})
		},
	})
	e.cases[caseID] = cs
	ctx := e.ctx
	e.mu.Unlock()

	cs.poller.Start(ctx)
	e.publish(events.Event{Type: events.EventCaseWatched, Case: caseID})
	return nil
}

// Unwatch stops tracking a case and cancels any live generation for it.
func (e *Engine) Unwatch(caseID string) error {
	e.mu.Lock()
	cs, ok := e.cases[caseID]
	if ok {
		delete(e.cases, caseID)
	}
	e.mu.Unlock()
	if !ok {
		return ErrNotWatched
	}

	if err := e.streams.Cancel(caseID); err != nil && !errors.Is(err, stream.ErrNoSession) {
		log.Printf("engine [%s]: cancel on unwatch: %v", caseID, err)
	}
	cs.poller.Stop()
	e.publish(events.Event{Type: events.EventCaseUnwatched, Case: caseID})
	return nil
}

// Watched returns the IDs of all watched cases.
func (e *Engine) Watched() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.cases))
	for id := range e.cases {
		ids = append(ids, id)
	}
	return ids
}

// Snapshot returns the current merged view and derived stages for a case.
func (e *Engine) Snapshot(caseID string) (CaseSnapshot, error) {
	cs, err := e.caseState(caseID)
	if err != nil {
		return CaseSnapshot{}, err
	}

	view, pollErr := cs.poller.View()

	cs.mu.Lock()
	resolved := cs.resolved
	display := cs.display
	haveView := cs.haveView
	cs.mu.Unlock()

	if !haveView {
		// First heavy fetch hasn't landed; resolve from whatever we have.
		resolved = stage.Resolve(view)
		display = cs.override.Display(resolved)
	}

	_, overrideSet := cs.override.Value()
	fp := staleness.Fingerprint(view.Documents)

	snap := CaseSnapshot{
		View:             view,
		ResolvedStage:    resolved.String(),
		ResolvedNum:      int(resolved),
		DisplayStage:     display.String(),
		DisplayNum:       int(display),
		OverrideSet:      overrideSet,
		Busy:             view.Busy(),
		Closed:           stage.Closed(view),
		ActiveDraft:      view.ActiveDraft(),
		AnalysisStale:    cs.tracker.IsStale(string(backend.GenerateAnalysis), fp),
		PreliminaryStale: cs.tracker.IsStale(string(backend.GeneratePreliminary), fp),
	}
	if pollErr != nil {
		snap.PollError = pollErr.Error()
	}
	if s, err := e.streams.Get(caseID); err == nil {
		ss := s.Snapshot()
		snap.Generation = &ss
	}
	return snap, nil
}

// Refresh forces a heavy refetch for a case.
func (e *Engine) Refresh(caseID string) error {
	cs, err := e.caseState(caseID)
	if err != nil {
		return err
	}
	cs.poller.Refresh()
	return nil
}

// SetOverride records a manual stage override for a case.
func (e *Engine) SetOverride(caseID string, stageNum int) error {
	cs, err := e.caseState(caseID)
	if err != nil {
		return err
	}
	s := stage.Stage(stageNum)
	if err := cs.override.Set(s); err != nil {
		return err
	}

	cs.mu.Lock()
	cs.display = cs.override.Display(cs.resolved)
	cs.mu.Unlock()

	e.publish(events.Event{
		Type:    events.EventOverrideSet,
		Case:    caseID,
		Payload: map[string]interface{}{"stage": s.String(), "stage_num": stageNum},
	})
	return nil
}

// ClearOverride removes any manual override for a case.
func (e *Engine) ClearOverride(caseID string) error {
	cs, err := e.caseState(caseID)
	if err != nil {
		return err
	}
	cs.override.Clear()

	cs.mu.Lock()
	cs.display = cs.resolved
	cs.mu.Unlock()

	e.publish(events.Event{Type: events.EventOverrideCleared, Case: caseID})
	return nil
}

// Generate starts a generation stream for a watched case, cancelling any
// prior live session for it.
func (e *Engine) Generate(ctx context.Context, caseID string, kind backend.GenerationKind) (*stream.Session, error) {
	cs, err := e.caseState(caseID)
	if err != nil {
		return nil, err
	}

	s, err := e.streams.Start(ctx, caseID, kind)
	if err != nil {
		return s, err
	}

	// The backend flips the case to GENERATING once the stream opens; refetch
	// now so the resolved stage reflects the running generation instead of
	// waiting for the stream to finish.
	cs.poller.Refresh()

	e.publish(events.Event{
		Type:    events.EventGenerationStarted,
		Case:    caseID,
		Payload: map[string]interface{}{"kind": string(kind), "session": s.ID()},
	})
	return s, nil
}

// CancelGeneration aborts the live generation session for a case.
func (e *Engine) CancelGeneration(caseID string) error {
	if _, err := e.caseState(caseID); err != nil {
		return err
	}
	return e.streams.Cancel(caseID)
}

// SetPollInterval updates the light-poll cadence on every watched case.
// Used by config hot reload.
func (e *Engine) SetPollInterval(d time.Duration) {
	e.mu.Lock()
	e.pollInterval = d
	pollers := make([]*poller.Poller, 0, len(e.cases))
	for _, cs := range e.cases {
		pollers = append(pollers, cs.poller)
	}
	e.mu.Unlock()

	for _, p := range pollers {
		p.SetInterval(d)
	}
}

// Close stops all pollers and cancels all generation sessions.
func (e *Engine) Close() {
	e.cancel()
	e.streams.CancelAll()

	e.mu.Lock()
	cases := make([]*caseState, 0, len(e.cases))
	for _, cs := range e.cases {
		cases = append(cases, cs)
	}
	e.cases = make(map[string]*caseState)
	e.mu.Unlock()

	for _, cs := range cases {
		cs.poller.Stop()
	}
}

func (e *Engine) caseState(caseID string) (*caseState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cs, ok := e.cases[caseID]
	if !ok {
		return nil, ErrNotWatched
	}
	return cs, nil
}

// viewChanged is the projection step: invoked by a case's poller whenever the
// merged view changes, never on a render cadence.
func (e *Engine) viewChanged(caseID string, view caseview.CaseView) {
	cs, err := e.caseState(caseID)
	if err != nil {
		return
	}

	resolved := stage.Resolve(view)

	_, hadOverride := cs.override.Value()
	cs.override.Observe(resolved)
	_, hasOverride := cs.override.Value()
	display := cs.override.Display(resolved)

	cs.mu.Lock()
	stageChanged := !cs.haveView || resolved != cs.resolved || display != cs.display
	cs.resolved = resolved
	cs.display = display
	cs.haveView = true
	cs.mu.Unlock()

	e.publish(events.Event{
		Type:    events.EventViewUpdated,
		Case:    caseID,
		Payload: map[string]interface{}{"status": string(view.Status), "busy": view.Busy()},
	})

	if hadOverride && !hasOverride {
		e.publish(events.Event{Type: events.EventOverrideCleared, Case: caseID})
	}

	if stageChanged {
		e.publish(events.Event{
			Type: events.EventStageChanged,
			Case: caseID,
			Payload: map[string]interface{}{
				"resolved":     resolved.String(),
				"resolved_num": int(resolved),
				"display":      display.String(),
				"display_num":  int(display),
			},
		})
	}
}

// generationFinished handles the end of a stream session: on success it
// captures the artifact fingerprint and refetches the full payload to pick up
// newly created report versions.
func (e *Engine) generationFinished(caseID, kind string, out stream.Outcome) {
	cs, err := e.caseState(caseID)
	if err != nil {
		return
	}

	switch {
	case out.Cancelled:
		e.publish(events.Event{
			Type:    events.EventGenerationCancelled,
			Case:    caseID,
			Payload: map[string]interface{}{"kind": kind},
		})
	case !out.Success:
		e.publish(events.Event{
			Type:    events.EventGenerationFailed,
			Case:    caseID,
			Payload: map[string]interface{}{"kind": kind, "error": out.Error},
		})
	default:
		view, _ := cs.poller.View()
		cs.tracker.Capture(kind, staleness.Fingerprint(view.Documents))
		cs.poller.Refresh()
		e.publish(events.Event{
			Type:    events.EventGenerationFinished,
			Case:    caseID,
			Payload: map[string]interface{}{"kind": kind},
		})
	}
}

func (e *Engine) publish(event events.Event) {
	if err := e.bus.Publish(context.Background(), event); err != nil && !errors.Is(err, events.ErrBusClosed) {
		log.Printf("engine: publish %s: %v", event.Type, err)
	}
}
