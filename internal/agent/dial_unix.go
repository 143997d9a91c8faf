//go:build !windows
// +build !windows

// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// Package agent drives a running ssh-agent instance through the standard
// agent protocol client. This file contains the Unix-specific implementation
// for reaching the agent socket.
package agent // import "github.com/eldios/ssh-agents/internal/agent"

import (
	"context"
	"io"
	"net"

	"golang.org/x/crypto/ssh/agent"
)

// dial connects to the agent listening on the given Unix domain socket and
// returns a protocol client plus a closer for the underlying connection.
func dial(ctx context.Context, socket string) (agent.Agent, io.Closer, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socket)
	if err != nil {
		return nil, nil, err
	}
	return agent.NewClient(conn), conn, nil
}
