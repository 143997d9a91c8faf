// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// Command-line entrypoint for ssh-agents.
//
// Usage:
//
//	eval "$(ssh-agents -s)"
//	ssh-agents [flags]
//
// See --help for options.
package main

import (
	"os"

	"github.com/eldios/ssh-agents/internal/cli"
)

// main is the entrypoint for the ssh-agents CLI.
func main() {
	if err := cli.Execute(); err != nil {
		// The error is already printed by Cobra on failure.
		os.Exit(1)
	}
}
