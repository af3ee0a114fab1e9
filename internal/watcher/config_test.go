// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/caseflow/internal/config"
	"github.com/wingedpig/caseflow/internal/events"
)

const validHJSON = `
{
  version: "1"
  backend: { base_url: "http://localhost:9000" }
  poll: { interval: "5s" }
}
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestConfigWatcher_ReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caseflow.hjson")
	writeFile(t, path, validHJSON)

	bus := events.NewMemoryEventBus(events.MemoryBusConfig{HistoryMaxEvents: 100})
	defer bus.Close()

	reloaded := make(chan *config.Config, 4)
	w, err := NewConfigWatcher(path, bus, 20*time.Millisecond, func(cfg *config.Config) {
		reloaded <- cfg
	})
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, path, `
{
  version: "1"
  backend: { base_url: "http://localhost:9000" }
  poll: { interval: "1s" }
}
`)

	select {
	case cfg := <-reloaded:
		assert.Equal(t, time.Second, cfg.PollInterval())
	case <-time.After(2 * time.Second):
		t.Fatal("reload callback not invoked")
	}

	require.Eventually(t, func() bool {
		history, err := bus.History(events.EventFilter{Types: []string{events.EventConfigReloaded}})
		return err == nil && len(history) >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestConfigWatcher_InvalidEditKeepsCurrentConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caseflow.hjson")
	writeFile(t, path, validHJSON)

	var reloads atomic.Int32
	w, err := NewConfigWatcher(path, nil, 20*time.Millisecond, func(cfg *config.Config) {
		reloads.Add(1)
	})
	require.NoError(t, err)
	defer w.Close()

	// Syntactically fine, semantically invalid.
	writeFile(t, path, `{ version: "1", backend: { base_url: "ftp://nope" } }`)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())
}

func TestConfigWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "caseflow.hjson")
	writeFile(t, path, validHJSON)

	var reloads atomic.Int32
	w, err := NewConfigWatcher(path, nil, 20*time.Millisecond, func(cfg *config.Config) {
		reloads.Add(1)
	})
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, filepath.Join(dir, "notes.txt"), "unrelated")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}
