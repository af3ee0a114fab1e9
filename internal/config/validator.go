// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateRequired(cfg, errs)
	v.validateServer(cfg, errs)
	v.validateBackend(cfg, errs)
	v.validateCases(cfg, errs)
	v.validateLogging(cfg, errs)
	v.validateDurations(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateRequired(cfg *Config, errs *ValidationError) {
	if cfg.Version == "" {
		errs.Add("version", "is required")
	}
	if cfg.Backend.BaseURL == "" {
		errs.Add("backend.base_url", "is required")
	}
}

func (v *Validator) validateServer(cfg *Config, errs *ValidationError) {
	if cfg.Server.Port != 0 {
		if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
			errs.Add("server.port", "must be between 0 and 65535")
		}
	}

	// TLS requires both halves.
	if (cfg.Server.TLSCert == "") != (cfg.Server.TLSKey == "") {
		errs.Add("server.tls_cert", "tls_cert and tls_key must be set together")
	}
}

func (v *Validator) validateBackend(cfg *Config, errs *ValidationError) {
	if cfg.Backend.BaseURL == "" {
		return
	}
	u, err := url.Parse(cfg.Backend.BaseURL)
	if err != nil {
		errs.Add("backend.base_url", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		errs.Add("backend.base_url", "must use http or https")
	}
	if u.Host == "" {
		errs.Add("backend.base_url", "missing host")
	}
}

func (v *Validator) validateCases(cfg *Config, errs *ValidationError) {
	seen := make(map[string]bool)
	for i, id := range cfg.Cases {
		prefix := fmt.Sprintf("cases[%d]", i)
		if id == "" {
			errs.Add(prefix, "case id must not be empty")
		} else if seen[id] {
			errs.Add(prefix, fmt.Sprintf("duplicate case id '%s'", id))
		} else {
			seen[id] = true
		}
	}
}

func (v *Validator) validateLogging(cfg *Config, errs *ValidationError) {
	if cfg.Logging.Level != "" {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[cfg.Logging.Level] {
			errs.Add("logging.level", "must be one of: debug, info, warn, error")
		}
	}
	if cfg.Logging.Format != "" {
		if cfg.Logging.Format != "json" && cfg.Logging.Format != "text" {
			errs.Add("logging.format", "must be 'json' or 'text'")
		}
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	checkDuration := func(field, value string, min time.Duration) {
		if value == "" {
			return
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			errs.Add(field, fmt.Sprintf("invalid duration '%s'", value))
			return
		}
		if d < min {
			errs.Add(field, fmt.Sprintf("must be at least %s", min))
		}
	}

	checkDuration("poll.interval", cfg.Poll.Interval, 250*time.Millisecond)
	checkDuration("backend.timeout", cfg.Backend.Timeout, time.Second)
	checkDuration("watch.debounce", cfg.Watch.Debounce, 0)
	checkDuration("events.history.max_age", cfg.Events.History.MaxAge, 0)

	if cfg.Events.History.MaxEvents < 0 {
		errs.Add("events.history.max_events", "must not be negative")
	}
}
