// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	sshagent "golang.org/x/crypto/ssh/agent"

	"github.com/eldios/ssh-agents/internal/i18n"
	"github.com/eldios/ssh-agents/internal/logging"
	"github.com/eldios/ssh-agents/internal/model"
)

// ErrStartFailed is wrapped by Start when a fresh agent cannot be spawned.
// This is the one fatal error class in the whole run.
var ErrStartFailed = errors.New("could not start ssh-agent")

// PassphraseFunc obtains the passphrase for an encrypted key file. It blocks
// until the operator answers or interrupts the process externally.
type PassphraseFunc func(path string) ([]byte, error)

// Conn talks to the agent referenced by an AgentState. The state is passed
// into every call rather than captured at construction: coordinates may be
// replaced mid-run when a stale record forces a fresh agent start.
type Conn struct {
	// Prompt is consulted when a key needs a passphrase. Defaults to an
	// interactive terminal prompt.
	Prompt PassphraseFunc
}

// New returns a connection using the interactive terminal passphrase prompt.
func New() *Conn {
	return &Conn{Prompt: terminalPassphrase}
}

// Status probes the agent referenced by st. Absence of an agent is a normal,
// expected outcome, so Status never returns an error: any failure to reach
// or query the agent is reported as StatusUnreachable.
func (c *Conn) Status(ctx context.Context, st *model.AgentState) model.AgentStatus {
	if !st.Valid() {
		return model.StatusUnreachable
	}
	ag, closer, err := dial(ctx, st.Socket)
	if err != nil {
		return model.StatusUnreachable
	}
	if closer != nil {
		defer closer.Close()
	}
	keys, err := ag.List()
	if err != nil {
		return model.StatusUnreachable
	}
	if len(keys) == 0 {
		return model.StatusReachableEmpty
	}
	return model.StatusHasKeys
}

// Assignments in the sh-dialect output of `ssh-agent -s`.
var (
	sockRe = regexp.MustCompile(`SSH_AUTH_SOCK=([^;]+);`)
	pidRe  = regexp.MustCompile(`SSH_AGENT_PID=(\d+);`)
)

// Start spawns a fresh ssh-agent for the given identity and returns its
// coordinates. A spawn or parse failure wraps ErrStartFailed and is fatal to
// the whole invocation.
func (c *Conn) Start(ctx context.Context, id model.AgentIdentity) (model.AgentState, error) {
	out, err := exec.CommandContext(ctx, "ssh-agent", "-s").Output()
	if err != nil {
		return model.AgentState{}, fmt.Errorf("%w: %v", ErrStartFailed, err)
	}
	st, err := parseAgentOutput(id, string(out))
	if err != nil {
		return model.AgentState{}, err
	}
	logging.Debugf("%s", i18n.T("agent.started", st.Name, st.PID))
	return st, nil
}

// parseAgentOutput extracts the socket path and pid from ssh-agent's
// sh-dialect startup output.
func parseAgentOutput(id model.AgentIdentity, out string) (model.AgentState, error) {
	sock := sockRe.FindStringSubmatch(out)
	pid := pidRe.FindStringSubmatch(out)
	if sock == nil || pid == nil {
		return model.AgentState{}, fmt.Errorf("%w: unexpected ssh-agent output", ErrStartFailed)
	}
	n, err := strconv.Atoi(pid[1])
	if err != nil || n <= 0 {
		return model.AgentState{}, fmt.Errorf("%w: bad agent pid %q", ErrStartFailed, pid[1])
	}
	return model.AgentState{Name: id.Name, PID: n, Socket: sock[1]}, nil
}

// AddKey submits the key at path for loading, honoring the confirm and
// lifetime constraints. Encrypted keys trigger the passphrase prompt, which
// blocks until resolved. Failures here are per-key and non-fatal: the caller
// continues with its remaining candidates.
func (c *Conn) AddKey(ctx context.Context, st *model.AgentState, path string, opts model.AddOptions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read key %s: %w", path, err)
	}

	key, err := ssh.ParseRawPrivateKey(data)
	if err != nil {
		var passErr *ssh.PassphraseMissingError
		if !errors.As(err, &passErr) {
			return fmt.Errorf("failed to parse key %s: %w", path, err)
		}
		pass, perr := c.Prompt(path)
		if perr != nil {
			return perr
		}
		key, err = ssh.ParseRawPrivateKeyWithPassphrase(data, pass)
		if err != nil {
			return fmt.Errorf("failed to decrypt key %s: %w", path, err)
		}
	}

	ag, closer, err := dial(ctx, st.Socket)
	if err != nil {
		return fmt.Errorf("failed to reach agent: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	// A non-positive lifetime means the key never expires.
	lifetime := uint32(0)
	if opts.Lifetime > 0 {
		lifetime = uint32(opts.Lifetime / time.Second)
	}
	added := sshagent.AddedKey{
		PrivateKey:       key,
		Comment:          path,
		ConfirmBeforeUse: opts.Confirm,
		LifetimeSecs:     lifetime,
	}
	if err := ag.Add(added); err != nil {
		return fmt.Errorf("agent refused key %s: %w", path, err)
	}
	return nil
}

// LoadedFingerprints returns the SHA256 fingerprints of all keys currently
// held by the agent. An unreachable or empty agent yields an empty set,
// never an error: membership checks degrade to "nothing is loaded".
func (c *Conn) LoadedFingerprints(ctx context.Context, st *model.AgentState) map[string]bool {
	fps := make(map[string]bool)
	if !st.Valid() {
		return fps
	}
	ag, closer, err := dial(ctx, st.Socket)
	if err != nil {
		return fps
	}
	if closer != nil {
		defer closer.Close()
	}
	keys, err := ag.List()
	if err != nil {
		return fps
	}
	for _, k := range keys {
		fps[ssh.FingerprintSHA256(k)] = true
	}
	return fps
}

// List returns one human-readable line per loaded key, in the spirit of
// `ssh-add -l`: fingerprint, comment and key type.
func (c *Conn) List(ctx context.Context, st *model.AgentState) ([]string, error) {
	name := ""
	if st != nil {
		name = st.Name
	}
	if !st.Valid() {
		return nil, errors.New(i18n.T("agent.not_running", name))
	}
	ag, closer, err := dial(ctx, st.Socket)
	if err != nil {
		return nil, errors.New(i18n.T("agent.not_running", name))
	}
	if closer != nil {
		defer closer.Close()
	}
	keys, err := ag.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list agent keys: %w", err)
	}
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s %s (%s)", ssh.FingerprintSHA256(k), k.Comment, k.Type()))
	}
	return lines, nil
}
