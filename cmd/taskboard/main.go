// Package main implements the taskboard binary: the HTTP server for the task
// dashboard and a command line client for the same hosted backend.
package main

import (
	"os"
)

// Version information, set via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
