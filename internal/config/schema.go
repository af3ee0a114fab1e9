// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON configuration loading and validation.
package config

import (
	"time"
)

// Config is the root configuration structure for Caseflow.
type Config struct {
	Version string        `json:"version"`
	Project ProjectConfig `json:"project"`
	Server  ServerConfig  `json:"server"`
	Backend BackendConfig `json:"backend"`
	Poll    PollConfig    `json:"poll"`
	Cases   []string      `json:"cases"`
	Events  EventsConfig  `json:"events"`
	Watch   WatchConfig   `json:"watch"`
	Logging LoggingConfig `json:"logging"`
}

// ProjectConfig contains project metadata.
type ProjectConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port    int    `json:"port"`
	Host    string `json:"host"`
	TLSCert string `json:"tls_cert"` // Path to TLS certificate file (enables HTTPS if both cert and key set)
	TLSKey  string `json:"tls_key"`  // Path to TLS private key file
}

// BackendConfig configures the upstream case-management API.
type BackendConfig struct {
	BaseURL string `json:"base_url"`
	Timeout string `json:"timeout"` // Request timeout for fetches (not generation streams)
}

// PollConfig configures the status-poll cadence for busy cases.
type PollConfig struct {
	Interval string `json:"interval"`
}

// EventsConfig configures the event system.
type EventsConfig struct {
	History HistoryConfig `json:"history"`
}

// HistoryConfig configures event history retention.
type HistoryConfig struct {
	MaxEvents int    `json:"max_events"`
	MaxAge    string `json:"max_age"`
}

// WatchConfig configures config-file watching for hot reload.
type WatchConfig struct {
	Disabled bool   `json:"disabled"`
	Debounce string `json:"debounce"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level  string `json:"level"`  // "debug", "info", "warn", "error"
	Format string `json:"format"` // "json", "text"
}

// PollInterval returns the parsed poll cadence.
func (c *Config) PollInterval() time.Duration {
	return ParseDuration(c.Poll.Interval, 3*time.Second)
}

// BackendTimeout returns the parsed fetch timeout.
func (c *Config) BackendTimeout() time.Duration {
	return ParseDuration(c.Backend.Timeout, 30*time.Second)
}

// WatchDebounce returns the parsed config-watch debounce window.
func (c *Config) WatchDebounce() time.Duration {
	return ParseDuration(c.Watch.Debounce, 500*time.Millisecond)
}

// ParseDuration parses a duration string, returning a default if empty.
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}
