// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package stream consumes the backend's NDJSON generation stream and presents
// it as an incrementally-updating, cancelable session.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"strings"
	"sync"
	"time"
)

// Event is one parsed NDJSON line of the generation protocol.
type Event struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Protocol event types. Unknown types are ignored for forward compatibility.
const (
	EventThought = "thought"
	EventContent = "content"
	EventDone    = "done"
	EventError   = "error"
)

// State is the lifecycle state of a generation session.
type State string

// Session states.
const (
	StateIdle      State = "idle"
	StateThinking  State = "thinking"
	StateStreaming State = "streaming"
	StateDone      State = "done"
	StateError     State = "error"
)

// Update is fanned out to session subscribers after each state mutation.
type Update struct {
	Event Event `json:"event"`
	State State `json:"state"`
}

// Snapshot is a point-in-time copy of a session's accumulated output.
type Snapshot struct {
	ID        string    `json:"id"`
	CaseID    string    `json:"case_id"`
	Kind      string    `json:"kind"`
	Thoughts  string    `json:"thoughts"`
	Content   string    `json:"content"`
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// Session is one generation run. Thoughts and content are append-only; state
// moves idle → thinking/streaming → done or error. Once cancelled, no further
// event may mutate the session, even if chunks were already buffered.
type Session struct {
	mu          sync.Mutex
	id          string
	caseID      string
	kind        string
	thoughts    strings.Builder
	content     strings.Builder
	state       State
	errMsg      string
	errored     bool
	cancelled   bool
	finished    bool
	cancel      context.CancelFunc
	subscribers map[chan Update]struct{}
	done        chan struct{}
	startedAt   time.Time
}

func newSession(id, caseID, kind string, cancel context.CancelFunc) *Session {
	return &Session{
		id:          id,
		caseID:      caseID,
		kind:        kind,
		state:       StateIdle,
		cancel:      cancel,
		subscribers: make(map[chan Update]struct{}),
		done:        make(chan struct{}),
		startedAt:   time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CaseID returns the case this session generates for.
func (s *Session) CaseID() string { return s.caseID }

// Done is closed when the session has finished for any reason.
func (s *Session) Done() <-chan struct{} { return s.done }

// Snapshot returns a copy of the current accumulated output.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		CaseID:    s.caseID,
		Kind:      s.kind,
		Thoughts:  s.thoughts.String(),
		Content:   s.content.String(),
		State:     s.state,
		Error:     s.errMsg,
		Cancelled: s.cancelled,
		StartedAt: s.startedAt,
	}
}

// Live reports whether the session is still consuming its stream.
func (s *Session) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.finished
}

// Cancel aborts the underlying read. It is not an error: the session keeps
// whatever state it had and errMsg stays empty. Safe to call repeatedly.
func (s *Session) Cancel() {
	s.mu.Lock()
	if s.cancelled || s.finished {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	s.mu.Unlock()
	s.cancel()
}

// Subscribe returns a channel that receives updates as the stream progresses.
// The channel is closed when the session finishes.
func (s *Session) Subscribe() chan Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan Update, 100)
	if s.finished {
		close(ch)
		return ch
	}
	s.subscribers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber channel. Safe to call if already removed.
func (s *Session) Unsubscribe(ch chan Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscribers[ch]; ok {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// apply folds one protocol event into the session. Returns false if the
// session no longer accepts events (cancelled or finished).
func (s *Session) apply(ev Event) bool {
	s.mu.Lock()
	if s.cancelled || s.finished {
		s.mu.Unlock()
		return false
	}

	switch ev.Type {
	case EventThought:
		s.thoughts.WriteString(ev.Text)
		s.state = StateThinking
	case EventContent:
		s.content.WriteString(ev.Text)
		s.state = StateStreaming
	case EventDone:
		// A protocol error earlier in the stream is sticky: done after
		// error must not turn the session into a success.
		if !s.errored {
			s.state = StateDone
		}
	case EventError:
		s.errored = true
		s.state = StateError
		s.errMsg = ev.Text
	default:
		// Unknown event type: ignore for forward compatibility.
		s.mu.Unlock()
		return true
	}

	update := Update{Event: ev, State: s.state}
	for ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			// Drop if subscriber buffer is full
		}
	}
	s.mu.Unlock()
	return true
}

// run consumes the NDJSON body until it ends, fails, or the session is
// cancelled. It must be called exactly once, in its own goroutine.
func (s *Session) run(body io.ReadCloser) {
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			log.Printf("stream [%s]: skipping malformed line: %v", s.id, err)
			continue
		}

		if !s.apply(ev) {
			break
		}
	}

	s.finish(scanner.Err())
}

// finish seals the session. readErr is the transport error from the scanner,
// nil on a clean end of stream. Cancellation is authoritative: a cancelled
// session never reports a transport error.
func (s *Session) finish(readErr error) {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	s.finished = true

	switch {
	case s.cancelled:
		// Intentional stop: keep state as-is, no error.
	case readErr != nil && !s.errored:
		s.state = StateError
		s.errMsg = readErr.Error()
		s.errored = true
	case !s.errored:
		// Clean end of stream counts as success even if the backend never
		// sent an explicit done event.
		s.state = StateDone
	}

	for ch := range s.subscribers {
		close(ch)
	}
	s.subscribers = make(map[chan Update]struct{})
	s.mu.Unlock()

	close(s.done)
}

// Outcome describes how a session ended.
type Outcome struct {
	Success   bool
	Cancelled bool
	Error     string
}

// outcome must only be called after the session has finished.
func (s *Session) outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Outcome{
		Success:   !s.errored && !s.cancelled,
		Cancelled: s.cancelled,
		Error:     s.errMsg,
	}
}
