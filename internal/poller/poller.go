// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package poller keeps the merged view of a case fresh without hammering the
// backend: an expensive full fetch on edges and explicit refreshes, and a
// cheap status poll on a fixed cadence while the case is busy.
package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/wingedpig/caseflow/internal/caseview"
)

const defaultInterval = 3 * time.Second

// Backend provides the two fetch channels. Implemented by *backend.Client.
type Backend interface {
	FetchCase(ctx context.Context, caseID string) (caseview.CaseView, error)
	FetchStatus(ctx context.Context, caseID string) (caseview.StatusSnapshot, error)
}

// Options configures a Poller.
type Options struct {
	// Interval is the light-poll cadence. Defaults to 3 seconds. It is a soft
	// cadence: a slow light fetch delays the next tick rather than being
	// preempted.
	Interval time.Duration

	// OnChange is invoked with the new merged view whenever it differs from
	// the previous one. Called from the poll goroutine.
	OnChange func(caseview.CaseView)

	// OnError is invoked when a heavy fetch fails. Light-fetch failures are
	// swallowed and retried on the next tick.
	OnError func(error)
}

// Poller runs the dual-channel fetch loop for one case. All fetches happen on
// a single goroutine, so a new request of either channel naturally supersedes
// a still-pending one and responses apply in issuance order.
type Poller struct {
	caseID   string
	backend  Backend
	onChange func(caseview.CaseView)
	onError  func(error)

	mu        sync.Mutex
	heavy     caseview.CaseView
	light     *caseview.StatusSnapshot
	merged    caseview.CaseView
	haveHeavy bool
	lastErr   error
	interval  time.Duration

	refreshCh  chan struct{}
	intervalCh chan time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
	started    bool
}

// New creates a poller for the given case.
func New(caseID string, backend Backend, opts Options) *Poller {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		caseID:     caseID,
		backend:    backend,
		onChange:   opts.OnChange,
		onError:    opts.OnError,
		interval:   interval,
		refreshCh:  make(chan struct{}, 1),
		intervalCh: make(chan time.Duration, 1),
		done:       make(chan struct{}),
	}
}

// Start launches the poll loop: one immediate heavy fetch, then light ticks
// while the case is busy. Start may be called once.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	go p.run(loopCtx)
}

// Stop terminates the poll loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-p.done
}

// Refresh requests an immediate heavy fetch. Requests are coalesced: a
// refresh issued while one is already queued is a no-op.
func (p *Poller) Refresh() {
	select {
	case p.refreshCh <- struct{}{}:
	default:
	}
}

// SetInterval changes the light-poll cadence. Takes effect on the next tick.
func (p *Poller) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case p.intervalCh <- d:
	default:
	}
}

// View returns the current merged view and the last heavy-fetch error. The
// error is sticky until a later heavy fetch succeeds.
func (p *Poller) View() (caseview.CaseView, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.merged, p.lastErr
}

// Busy reports whether the merged view shows the case as actively worked on.
func (p *Poller) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.haveHeavy && p.merged.Busy()
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	p.heavyFetch(ctx)

	p.mu.Lock()
	interval := p.interval
	p.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case d := <-p.intervalCh:
			p.mu.Lock()
			p.interval = d
			p.mu.Unlock()
			ticker.Reset(d)
		case <-p.refreshCh:
			p.heavyFetch(ctx)
		case <-ticker.C:
			if !p.Busy() {
				// Quiet case: skip the tick rather than poll forever.
				continue
			}
			p.lightFetch(ctx)
		}
	}
}

// heavyFetch pulls the full payload. On success the stale light overlay is
// discarded: the heavy response is now the most recently received data for
// every field.
func (p *Poller) heavyFetch(ctx context.Context) {
	view, err := p.backend.FetchCase(ctx, p.caseID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("poller [%s]: heavy fetch failed: %v", p.caseID, err)
		p.mu.Lock()
		p.lastErr = err
		onError := p.onError
		p.mu.Unlock()
		if onError != nil {
			onError(err)
		}
		return
	}

	p.mu.Lock()
	p.heavy = view
	p.light = nil
	p.haveHeavy = true
	p.lastErr = nil
	newMerged := caseview.Merge(view, nil)
	changed := !caseview.Equal(p.merged, newMerged)
	p.merged = newMerged
	onChange := p.onChange
	p.mu.Unlock()

	if changed && onChange != nil {
		onChange(newMerged)
	}
}

// lightFetch pulls the status-only payload. Failures are best-effort: logged
// and retried on the next tick.
func (p *Poller) lightFetch(ctx context.Context) {
	snap, err := p.backend.FetchStatus(ctx, p.caseID)
	if err != nil {
		if ctx.Err() == nil {
			log.Printf("poller [%s]: light fetch failed (will retry): %v", p.caseID, err)
		}
		return
	}

	p.mu.Lock()
	wasBusy := p.haveHeavy && p.merged.Busy()
	p.light = &snap
	newMerged := caseview.Merge(p.heavy, p.light)
	changed := !caseview.Equal(p.merged, newMerged)
	p.merged = newMerged
	onChange := p.onChange
	p.mu.Unlock()

	if changed && onChange != nil {
		onChange(newMerged)
	}

	// Busy → settled edge: stop leaning on the light channel and pick up
	// newly created report versions with one heavy fetch.
	if wasBusy && snap.Status.Settled() {
		p.heavyFetch(ctx)
	}
}
