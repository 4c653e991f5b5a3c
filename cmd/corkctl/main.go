// Corkboard - Collaborative Kanban Boards with Real-Time Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/corkboard

// Command corkctl is a terminal client for a Corkboard server.
package main

import (
	"os"

	"github.com/tomtom215/corkboard/cmd/corkctl/commands"
)

// Version information, set at build time with -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := commands.Execute(version, commit, date); err != nil {
		// The printer has already reported the error.
		os.Exit(1)
	}
}
