// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "caseflow.hjson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_LoadHJSON(t *testing.T) {
	path := writeConfig(t, `
{
  version: "1"
  project: {
    name: caseflow
    // comments are fine in hjson
    description: case progress daemon
  }
  backend: {
    base_url: "http://localhost:9000/api"
    timeout: 10s
  }
  poll: {
    interval: 2s
  }
  cases: [
    "case-100"
    "case-200"
  ]
}
`)

	loader := NewLoader()
	cfg, err := loader.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.Version)
	assert.Equal(t, "caseflow", cfg.Project.Name)
	assert.Equal(t, "http://localhost:9000/api", cfg.Backend.BaseURL)
	assert.Equal(t, []string{"case-100", "case-200"}, cfg.Cases)
	assert.Equal(t, 2*time.Second, cfg.PollInterval())
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout())
}

func TestLoader_LoadWithDefaults(t *testing.T) {
	path := writeConfig(t, `
{
  version: "1"
  backend: { base_url: "http://localhost:9000" }
}
`)

	loader := NewLoader()
	cfg, err := loader.LoadWithDefaults(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, 8620, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "3s", cfg.Poll.Interval)
	assert.Equal(t, "30s", cfg.Backend.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 10000, cfg.Events.History.MaxEvents)
	assert.Equal(t, 500*time.Millisecond, cfg.WatchDebounce())
}

func TestLoader_MissingFile(t *testing.T) {
	loader := NewLoader()
	_, err := loader.Load(context.Background(), "/nonexistent/caseflow.hjson")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoader_MalformedHJSON(t *testing.T) {
	path := writeConfig(t, `{ version: "1", backend: { base_url`)

	loader := NewLoader()
	_, err := loader.Load(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse hjson")
}

func TestLoader_FindConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "caseflow.hjson"), []byte("{}"), 0644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	loader := NewLoader()
	path, err := loader.FindConfig()
	require.NoError(t, err)
	assert.Contains(t, path, "caseflow.hjson")
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseDuration("", 3*time.Second))
	assert.Equal(t, 5*time.Second, ParseDuration("5s", 3*time.Second))
	assert.Equal(t, 3*time.Second, ParseDuration("bogus", 3*time.Second))
}
