//go:build windows
// +build windows

// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// Package agent drives a running ssh-agent instance through the standard
// agent protocol client. This file contains the Windows-specific
// implementation for reaching the agent.
package agent // import "github.com/eldios/ssh-agents/internal/agent"

import (
	"context"
	"io"

	"github.com/Microsoft/go-winio"
	"github.com/davidmz/go-pageant"
	"golang.org/x/crypto/ssh/agent"
)

// dial connects to an agent on Windows. Pageant-compatible agents (PuTTY,
// gpg-agent) are tried first; otherwise the socket is treated as an OpenSSH
// named pipe, falling back to the default OpenSSH for Windows pipe when no
// socket is recorded.
func dial(ctx context.Context, socket string) (agent.Agent, io.Closer, error) {
	if pageant.Available() {
		return pageant.New(), nil, nil
	}

	pipe := socket
	if pipe == "" {
		pipe = `\\.\pipe\openssh-ssh-agent`
	}
	conn, err := winio.DialPipeContext(ctx, pipe)
	if err != nil {
		return nil, nil, err
	}
	return agent.NewClient(conn), conn, nil
}
