// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// Package model defines the core data types shared across the application:
// the identity of a named agent instance, the persisted record of a running
// agent, and the transient status derived by probing it.
package model

import "time"

// DefaultAgentName is the name used when no agent name is given. The default
// agent keeps its state file directly under ~/.ssh; named agents get a
// name-scoped subdirectory.
const DefaultAgentName = "global"

// Environment variable names forming the contract between this tool and the
// invoking shell. SSH_AUTH_SOCK and SSH_AGENT_PID match the variables set by
// ssh-agent itself; SSH_AGENT_NAME identifies which named instance they
// belong to.
const (
	EnvAgentName = "SSH_AGENT_NAME"
	EnvAgentPID  = "SSH_AGENT_PID"
	EnvAuthSock  = "SSH_AUTH_SOCK"
)

// AgentIdentity names an agent instance. It is immutable for the lifetime of
// the process and determines the on-disk state file path.
type AgentIdentity struct {
	Name string
}

// NewIdentity returns an identity for the given name, falling back to
// DefaultAgentName when the name is empty.
func NewIdentity(name string) AgentIdentity {
	if name == "" {
		name = DefaultAgentName
	}
	return AgentIdentity{Name: name}
}

// AgentState is a (possibly stale) record of a previously started agent.
// It is read from disk at startup and overwritten whenever a new agent is
// spawned. Stale records are self-healing: they get overwritten on the next
// successful start and tolerated otherwise.
type AgentState struct {
	Name   string
	PID    int
	Socket string
}

// Valid reports whether the state plausibly refers to a started agent.
// PID and socket path must both be present; anything else is treated the
// same as having no state at all.
func (s *AgentState) Valid() bool {
	return s != nil && s.PID > 0 && s.Socket != ""
}

// AgentStatus is the tri-state result of probing an agent. It is derived
// fresh on every invocation and never persisted.
type AgentStatus int

const (
	// StatusUnreachable means no usable agent answered on the recorded
	// socket. This is a normal outcome, not an error.
	StatusUnreachable AgentStatus = iota
	// StatusReachableEmpty means the agent answered but holds no keys.
	StatusReachableEmpty
	// StatusHasKeys means the agent answered and has at least one key loaded.
	StatusHasKeys
)

// String returns a short human-readable form, used in debug logs.
func (s AgentStatus) String() string {
	switch s {
	case StatusHasKeys:
		return "has-keys"
	case StatusReachableEmpty:
		return "reachable-empty"
	default:
		return "unreachable"
	}
}

// AddOptions carries the per-key constraints applied uniformly to every key
// added during one invocation.
type AddOptions struct {
	// Confirm marks the key so the agent demands interactive approval
	// before every signing operation using it.
	Confirm bool
	// Lifetime, when non-zero, makes the agent forget the key after the
	// given duration.
	Lifetime time.Duration
}
