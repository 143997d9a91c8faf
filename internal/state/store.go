// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// Package state persists the environment-variable triple identifying a named
// agent instance. The record is a small text file of shell-evaluable
// assignments so existing setups can still `source` it directly.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eldios/ssh-agents/internal/model"
)

// stateFileName is the file holding the agent coordinates inside the
// per-agent directory.
const stateFileName = "agent"

// DefaultDir returns the base directory for agent state files, ~/.ssh.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ssh"
	}
	return filepath.Join(home, ".ssh")
}

// PathFor returns the state file path for an identity under baseDir. The
// path is a pure function of the agent name: the default agent lives at
// <base>/agent, a named one at <base>/<name>/agent.
func PathFor(baseDir string, id model.AgentIdentity) string {
	if id.Name == model.DefaultAgentName {
		return filepath.Join(baseDir, stateFileName)
	}
	return filepath.Join(baseDir, id.Name, stateFileName)
}

// Store reads and writes agent state records under a base directory.
type Store struct {
	baseDir string
}

// New returns a store rooted at ~/.ssh.
func New() *Store {
	return NewAt(DefaultDir())
}

// NewAt returns a store rooted at the given directory. Tests use this to
// work inside a temporary directory.
func NewAt(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Path returns the state file path for the given identity.
func (s *Store) Path(id model.AgentIdentity) string {
	return PathFor(s.baseDir, id)
}

// Load reads the persisted record for an identity. A missing, unreadable or
// malformed file yields (nil, nil): absent state is a normal condition and
// must never crash the caller. When no file exists the process environment
// is consulted as a fallback, accepted only if SSH_AGENT_NAME matches the
// requested identity.
func (s *Store) Load(id model.AgentIdentity) (*model.AgentState, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		if st := fromEnvironment(id); st.Valid() {
			return st, nil
		}
		return nil, nil
	}
	st := parseRecord(string(data))
	if !st.Valid() || st.Name != id.Name {
		return nil, nil
	}
	return st, nil
}

// Save overwrites the record for an identity. The write goes through a
// temporary file in the same directory followed by a rename, so a concurrent
// reader sees either the old or the new record, never a partial one. The
// file is owner-only since it identifies a live credential-access channel.
func (s *Store) Save(id model.AgentIdentity, st model.AgentState) error {
	path := s.Path(id)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".agent-*")
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to restrict state file permissions: %w", err)
	}
	if _, err := tmp.WriteString(formatRecord(st)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// fromEnvironment reconstructs state from the process environment, the
// input-restore path for shells that already exported the triple.
func fromEnvironment(id model.AgentIdentity) *model.AgentState {
	if os.Getenv(model.EnvAgentName) != id.Name {
		return nil
	}
	pid, err := strconv.Atoi(os.Getenv(model.EnvAgentPID))
	if err != nil {
		return nil
	}
	return &model.AgentState{
		Name:   id.Name,
		PID:    pid,
		Socket: os.Getenv(model.EnvAuthSock),
	}
}

// formatRecord renders the state as sh-dialect assignments, the format
// historically sourced by shell startup files.
func formatRecord(st model.AgentState) string {
	var sb strings.Builder
	for _, kv := range [][2]string{
		{model.EnvAgentName, st.Name},
		{model.EnvAgentPID, strconv.Itoa(st.PID)},
		{model.EnvAuthSock, st.Socket},
	} {
		fmt.Fprintf(&sb, "%s=%s; export %s;\n", kv[0], kv[1], kv[0])
	}
	return sb.String()
}

// parseRecord reads a record back, tolerating unknown or mangled lines.
// Anything it cannot make sense of is simply skipped; validity is judged by
// the caller via AgentState.Valid.
func parseRecord(data string) *model.AgentState {
	st := &model.AgentState{}
	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// KEY=value; export KEY;
		assign, _, _ := strings.Cut(line, ";")
		key, value, ok := strings.Cut(assign, "=")
		if !ok {
			continue
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch strings.TrimSpace(key) {
		case model.EnvAgentName:
			st.Name = value
		case model.EnvAgentPID:
			if pid, err := strconv.Atoi(value); err == nil {
				st.PID = pid
			}
		case model.EnvAuthSock:
			st.Socket = value
		}
	}
	return st
}
