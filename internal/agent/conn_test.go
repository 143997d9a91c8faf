// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.
package agent

import (
	"errors"
	"testing"

	"github.com/eldios/ssh-agents/internal/model"
)

const sampleAgentOutput = `SSH_AUTH_SOCK=/tmp/ssh-XXXXXXVc60Qb/agent.1160; export SSH_AUTH_SOCK;
SSH_AGENT_PID=1161; export SSH_AGENT_PID;
echo Agent pid 1161;
`

func TestParseAgentOutput(t *testing.T) {
	st, err := parseAgentOutput(model.NewIdentity("work"), sampleAgentOutput)
	if err != nil {
		t.Fatalf("parseAgentOutput failed: %v", err)
	}
	if st.Name != "work" {
		t.Fatalf("unexpected name: %s", st.Name)
	}
	if st.PID != 1161 {
		t.Fatalf("unexpected pid: %d", st.PID)
	}
	if st.Socket != "/tmp/ssh-XXXXXXVc60Qb/agent.1160" {
		t.Fatalf("unexpected socket: %s", st.Socket)
	}
}

func TestParseAgentOutput_Garbage(t *testing.T) {
	if _, err := parseAgentOutput(model.NewIdentity("global"), "agent exploded\n"); !errors.Is(err, ErrStartFailed) {
		t.Fatalf("expected ErrStartFailed, got %v", err)
	}
	if _, err := parseAgentOutput(model.NewIdentity("global"), "SSH_AUTH_SOCK=/tmp/a; export SSH_AUTH_SOCK;\n"); !errors.Is(err, ErrStartFailed) {
		t.Fatalf("expected ErrStartFailed without pid, got %v", err)
	}
}
