// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package watcher

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wingedpig/caseflow/internal/config"
	"github.com/wingedpig/caseflow/internal/events"
)

// ConfigWatcher watches the configuration file and reloads it on change.
// Validated reloads are announced on the event bus and handed to the
// OnReload callback; invalid edits are logged and the running config kept.
type ConfigWatcher struct {
	path      string
	bus       events.EventBus
	loader    *config.Loader
	validator *config.Validator
	debouncer *Debouncer
	onReload  func(*config.Config)

	watcher *fsnotify.Watcher
	closeCh chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewConfigWatcher starts watching the config file at path. The watch is on
// the containing directory: editors replace files by rename, which drops a
// watch placed on the file itself.
func NewConfigWatcher(path string, bus events.EventBus, debounce time.Duration, onReload func(*config.Config)) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}

	w := &ConfigWatcher{
		path:      abs,
		bus:       bus,
		loader:    config.NewLoader(),
		validator: config.NewValidator(),
		debouncer: NewDebouncer(debounce),
		onReload:  onReload,
		watcher:   fsWatcher,
		closeCh:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// SetDebounce changes the debounce window.
func (w *ConfigWatcher) SetDebounce(d time.Duration) {
	w.debouncer.SetDuration(d)
}

// Close stops the watcher and releases resources.
func (w *ConfigWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.debouncer.Stop()
	w.watcher.Close()
	w.wg.Wait()

	return nil
}

func (w *ConfigWatcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config watcher: %v", err)
		}
	}
}

func (w *ConfigWatcher) handleEvent(event fsnotify.Event) {
	// Chmod fires on reads of some filesystems; only content changes matter.
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if filepath.Clean(event.Name) != w.path {
		return
	}

	w.debouncer.Trigger(w.reload)
}

func (w *ConfigWatcher) reload() {
	cfg, err := w.loader.LoadWithDefaults(context.Background(), w.path)
	if err != nil {
		log.Printf("config watcher: reload failed, keeping current config: %v", err)
		return
	}
	if err := w.validator.Validate(cfg); err != nil {
		log.Printf("config watcher: invalid config, keeping current config: %v", err)
		return
	}

	log.Printf("config watcher: reloaded %s", w.path)

	if w.bus != nil {
		w.bus.Publish(context.Background(), events.Event{
			Type: events.EventConfigReloaded,
			Payload: map[string]interface{}{
				"path":          w.path,
				"poll_interval": cfg.Poll.Interval,
			},
		})
	}
	if w.onReload != nil {
		w.onReload(cfg)
	}
}
