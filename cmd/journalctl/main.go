// Journal Edge - Session Gate, API Proxy, and Analysis Orchestration
// Copyright 2026 Lebensschule Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/lebensschule/journal-edge

// Command journalctl creates journal entries and follows their analysis.
package main

import (
	"fmt"
	"os"

	"github.com/lebensschule/journal-edge/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "journalctl:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
