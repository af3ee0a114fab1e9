// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"os"
)

// CheckTLSConfig decides whether the dashboard API should serve TLS. Both
// paths empty means plain HTTP, the normal setup for a localhost daemon.
// Setting only one of tls_cert/tls_key is a configuration error, as is
// pointing either at a file that does not exist.
func CheckTLSConfig(certPath, keyPath string) (bool, error) {
	if certPath == "" && keyPath == "" {
		return false, nil
	}
	if certPath == "" || keyPath == "" {
		return false, fmt.Errorf("both tls_cert and tls_key must be set (got cert=%q, key=%q)", certPath, keyPath)
	}

	if _, err := os.Stat(expandPath(certPath)); err != nil {
		return false, fmt.Errorf("tls_cert: %w", err)
	}
	if _, err := os.Stat(expandPath(keyPath)); err != nil {
		return false, fmt.Errorf("tls_key: %w", err)
	}
	return true, nil
}

// expandPath resolves a leading ~ so cert paths can live under the user's
// home directory in caseflow.hjson.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return home + path[1:]
		}
	}
	return path
}
