// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package stream

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chunkedReader yields a byte stream in pre-split chunks, simulating arbitrary
// HTTP chunk boundaries.
type chunkedReader struct {
	chunks [][]byte
	idx    int
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.idx >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.idx])
	if n < len(r.chunks[r.idx]) {
		r.chunks[r.idx] = r.chunks[r.idx][n:]
	} else {
		r.idx++
	}
	return n, nil
}

// errAfterReader returns its payload, then a transport error.
type errAfterReader struct {
	data []byte
	err  error
	done bool
}

func (r *errAfterReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.data), nil
	}
	return 0, r.err
}

func newTestSession() *Session {
	return newSession("s1", "case-1", "report", func() {})
}

func runSession(t *testing.T, s *Session, r io.Reader) {
	t.Helper()
	s.run(io.NopCloser(r))
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("session did not finish")
	}
}

func TestSession_AccumulatesThoughtsAndContent(t *testing.T) {
	body := `{"type":"thought","text":"examining "}` + "\n" +
		`{"type":"thought","text":"documents"}` + "\n" +
		`{"type":"content","text":"# Report\n"}` + "\n" +
		`{"type":"content","text":"Findings."}` + "\n" +
		`{"type":"done"}` + "\n"

	s := newTestSession()
	runSession(t, s, &chunkedReader{chunks: [][]byte{[]byte(body)}})

	snap := s.Snapshot()
	assert.Equal(t, "examining documents", snap.Thoughts)
	assert.Equal(t, "# Report\nFindings.", snap.Content)
	assert.Equal(t, StateDone, snap.State)
	assert.Empty(t, snap.Error)
	assert.True(t, s.outcome().Success)
}

// TestSession_ChunkBoundaryRobustness feeds the same byte stream split at
// every possible offset and asserts the final accumulated state is identical
// regardless of where chunk boundaries fall.
func TestSession_ChunkBoundaryRobustness(t *testing.T) {
	body := []byte(`{"type":"thought","text":"a"}` + "\n" +
		`{"type":"content","text":"b"}` + "\n" +
		`{"type":"content","text":"c"}` + "\n" +
		`{"type":"done"}` + "\n")

	reference := newTestSession()
	runSession(t, reference, &chunkedReader{chunks: [][]byte{body}})
	want := reference.Snapshot()

	for split := 1; split < len(body); split++ {
		s := newTestSession()
		first := append([]byte(nil), body[:split]...)
		second := append([]byte(nil), body[split:]...)
		runSession(t, s, &chunkedReader{chunks: [][]byte{first, second}})

		got := s.Snapshot()
		assert.Equal(t, want.Thoughts, got.Thoughts, "split at %d", split)
		assert.Equal(t, want.Content, got.Content, "split at %d", split)
		assert.Equal(t, want.State, got.State, "split at %d", split)
	}
}

func TestSession_FinalPartialLineIsParsed(t *testing.T) {
	// No trailing newline on the last event.
	body := `{"type":"content","text":"partial"}`

	s := newTestSession()
	runSession(t, s, &chunkedReader{chunks: [][]byte{[]byte(body)}})

	snap := s.Snapshot()
	assert.Equal(t, "partial", snap.Content)
	assert.Equal(t, StateDone, snap.State)
}

func TestSession_MalformedLineSkipped(t *testing.T) {
	body := `{"type":"content","text":"before"}` + "\n" +
		`{not json at all` + "\n" +
		`{"type":"content","text":" after"}` + "\n"

	s := newTestSession()
	runSession(t, s, &chunkedReader{chunks: [][]byte{[]byte(body)}})

	snap := s.Snapshot()
	assert.Equal(t, "before after", snap.Content)
	assert.Equal(t, StateDone, snap.State)
}

func TestSession_UnknownTypeIgnored(t *testing.T) {
	body := `{"type":"telemetry","text":"ignored"}` + "\n" +
		`{"type":"content","text":"kept"}` + "\n"

	s := newTestSession()
	runSession(t, s, &chunkedReader{chunks: [][]byte{[]byte(body)}})

	snap := s.Snapshot()
	assert.Equal(t, "kept", snap.Content)
	assert.NotContains(t, snap.Thoughts, "ignored")
}

func TestSession_ErrorEventExcludesSuccess(t *testing.T) {
	body := `{"type":"content","text":"some output"}` + "\n" +
		`{"type":"error","text":"model overloaded"}` + "\n" +
		`{"type":"done"}` + "\n"

	s := newTestSession()
	runSession(t, s, &chunkedReader{chunks: [][]byte{[]byte(body)}})

	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, "model overloaded", snap.Error)

	out := s.outcome()
	assert.False(t, out.Success)
	assert.False(t, out.Cancelled)
	assert.Equal(t, "model overloaded", out.Error)
}

func TestSession_TransportFailureMidStream(t *testing.T) {
	r := &errAfterReader{
		data: []byte(`{"type":"content","text":"start"}` + "\n"),
		err:  errors.New("connection reset"),
	}

	s := newTestSession()
	runSession(t, s, r)

	snap := s.Snapshot()
	assert.Equal(t, StateError, snap.State)
	assert.Contains(t, snap.Error, "connection reset")
	assert.Equal(t, "start", snap.Content)
	assert.False(t, s.outcome().Success)
}

func TestSession_CancelIsNotAnError(t *testing.T) {
	cancelled := false
	s := newSession("s1", "case-1", "report", func() { cancelled = true })

	s.apply(Event{Type: EventContent, Text: "partial"})
	s.Cancel()
	assert.True(t, cancelled)

	// Buffered chunks that arrive after cancellation must not mutate state.
	assert.False(t, s.apply(Event{Type: EventContent, Text: "late"}))
	assert.False(t, s.apply(Event{Type: EventError, Text: "late error"}))

	s.finish(context.Canceled)

	snap := s.Snapshot()
	assert.Equal(t, "partial", snap.Content)
	assert.Empty(t, snap.Error)
	assert.NotEqual(t, StateError, snap.State)

	out := s.outcome()
	assert.True(t, out.Cancelled)
	assert.False(t, out.Success)
}

func TestSession_SubscribersReceiveUpdates(t *testing.T) {
	s := newTestSession()
	ch := s.Subscribe()

	body := `{"type":"thought","text":"hmm"}` + "\n" + `{"type":"done"}` + "\n"
	runSession(t, s, &chunkedReader{chunks: [][]byte{[]byte(body)}})

	var updates []Update
	for u := range ch {
		updates = append(updates, u)
	}
	require.Len(t, updates, 2)
	assert.Equal(t, EventThought, updates[0].Event.Type)
	assert.Equal(t, StateThinking, updates[0].State)
	assert.Equal(t, EventDone, updates[1].Event.Type)
	assert.Equal(t, StateDone, updates[1].State)
}

func TestSession_SubscribeAfterFinishReturnsClosedChannel(t *testing.T) {
	s := newTestSession()
	runSession(t, s, &chunkedReader{chunks: [][]byte{[]byte(`{"type":"done"}` + "\n")}})

	ch := s.Subscribe()
	_, open := <-ch
	assert.False(t, open)
}
