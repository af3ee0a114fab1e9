// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/wingedpig/caseflow/internal/app"
	"github.com/wingedpig/caseflow/internal/config"
)

var (
	version = "0.9"
)

func main() {
	// Check for subcommands before flag parsing
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Parse flags
	var (
		configPath  string
		host        string
		port        int
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&configPath, "c", "", "Path to config file (short)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides config)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&showVersion, "v", false, "Show version (short)")
	flag.Parse()

	if showVersion {
		fmt.Printf("caseflow %s\n", version)
		os.Exit(0)
	}

	// Find config file if not specified
	if configPath == "" {
		loader := config.NewLoader()
		found, err := loader.FindConfig()
		if err != nil {
			log.Fatalf("Error: %v", err)
		}
		configPath = found
	}

	log.Printf("Using config: %s", configPath)

	// Create and run app
	application, err := app.New(app.Options{
		ConfigPath: configPath,
		Host:       host,
		Port:       port,
		Version:    version,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	ctx := context.Background()
	if err := application.Run(ctx); err != nil {
		log.Fatalf("App error: %v", err)
	}
}

// runInit handles the "caseflow init" command
func runInit() error {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	showHelp := initFlags.Bool("help", false, "Show help for init command")
	initFlags.BoolVar(showHelp, "h", false, "Show help for init command")
	initFlags.Parse(os.Args[2:])

	if *showHelp {
		fmt.Println(`Usage: caseflow init [options]

Create a new caseflow.hjson configuration file in the current directory.

The generated file is fully commented to help you understand and
customize all available options.

Options:
  -h, -help    Show this help message

After running init:
  1. Set backend.base_url to your case-management API
  2. Run: ./caseflow
  3. Open: http://localhost:8620/api/v1/status`)
		return nil
	}

	configFile := "caseflow.hjson"
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists", configFile)
	}

	if err := os.WriteFile(configFile, []byte(starterConfig), 0644); err != nil {
		return fmt.Errorf("write %s: %w", configFile, err)
	}

	fmt.Printf("Created %s\n", configFile)
	return nil
}

const starterConfig = `{
  version: "1"

  project: {
    name: caseflow
    description: Case progress daemon
  }

  // HTTP server for dashboard clients.
  server: {
    host: 127.0.0.1
    port: 8620
    // tls_cert: ~/certs/caseflow.pem
    // tls_key: ~/certs/caseflow.key
  }

  // Upstream case-management API.
  backend: {
    base_url: "http://localhost:9000/api"
    // Request timeout for fetches. Generation streams are never timed out.
    timeout: 30s
  }

  // Status-poll cadence while a case is busy. Quiet cases are not polled.
  poll: {
    interval: 3s
  }

  // Cases to watch at startup. More can be added through the API.
  cases: [
    // "case-12345"
  ]

  events: {
    history: {
      max_events: 10000
      max_age: 1h
    }
  }

  // Config-file watching for hot reload of poll.interval and cases.
  watch: {
    debounce: 500ms
  }

  logging: {
    level: info
    format: text
  }
}
`
