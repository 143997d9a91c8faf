// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// Package core contains the agent supervisor: the orchestration that decides
// whether an existing agent is alive and usable, starts one when absent, and
// loads requested keys while skipping duplicates. It depends only on small
// interfaces so the CLI wires real implementations and tests wire fakes.
package core

import (
	"context"
	"os"
	"path/filepath"

	"github.com/eldios/ssh-agents/internal/logging"
	"github.com/eldios/ssh-agents/internal/model"
	"github.com/eldios/ssh-agents/internal/sshkey"
)

// Store persists and restores agent state records.
type Store interface {
	Load(id model.AgentIdentity) (*model.AgentState, error)
	Save(id model.AgentIdentity, st model.AgentState) error
}

// Conn reaches the agent referenced by a state record. The state is an
// explicit argument on every call: it is the only process-wide mutable input
// and the supervisor threads it through the pipeline as a value.
type Conn interface {
	Status(ctx context.Context, st *model.AgentState) model.AgentStatus
	Start(ctx context.Context, id model.AgentIdentity) (model.AgentState, error)
	AddKey(ctx context.Context, st *model.AgentState, path string, opts model.AddOptions) error
	LoadedFingerprints(ctx context.Context, st *model.AgentState) map[string]bool
}

// Options selects what one invocation should do.
type Options struct {
	Identity model.AgentIdentity
	// Session marks a session-initializer invocation (shell startup files).
	// When the agent already has keys it short-circuits all key loading.
	Session bool
	// AddDefault requests loading every candidate under DefaultDir.
	AddDefault bool
	// DefaultDir is the directory scanned when AddDefault is set,
	// typically ~/.ssh.
	DefaultDir string
	// Sources are explicit file-or-directory requests. Directories are
	// enumerated one level deep, never recursively.
	Sources []string
	// Add carries the constraints applied uniformly to every added key.
	Add model.AddOptions
}

// Result reports what the run settled on.
type Result struct {
	// State holds the effective agent coordinates, to be re-exported into
	// the invoking shell.
	State model.AgentState
	// Started is true when a fresh agent was spawned during this run.
	Started bool
}

// Supervisor ties the store, the connection and the key helpers together.
type Supervisor struct {
	store Store
	conn  Conn

	// Test seams; production uses the sshkey package.
	isKey       func(path string) bool
	fingerprint func(path string) (string, error)
}

// New returns a supervisor over the given store and connection.
func New(store Store, conn Conn) *Supervisor {
	return &Supervisor{
		store:       store,
		conn:        conn,
		isKey:       sshkey.IsPrivateKey,
		fingerprint: sshkey.Fingerprint,
	}
}

// Run restores or starts the named agent, then loads the requested keys.
//
// The ordering is strict: state restore, status probe, conditional start
// (fatal on failure, persisting the fresh coordinates) all happen before any
// key loading, since loading requires a reachable agent. Each key add is
// attempted independently; one bad key never aborts the rest.
func (s *Supervisor) Run(ctx context.Context, opts Options) (Result, error) {
	id := opts.Identity

	st, err := s.store.Load(id)
	if err != nil {
		logging.Debugf("ignoring unreadable state for %q: %v", id.Name, err)
		st = nil
	}

	status := s.conn.Status(ctx, st)
	logging.Debugf("agent %q status: %s", id.Name, status)

	res := Result{}
	if status == model.StatusUnreachable {
		fresh, err := s.conn.Start(ctx, id)
		if err != nil {
			return Result{}, err
		}
		if err := s.store.Save(id, fresh); err != nil {
			logging.Warnf("could not persist state for %q: %v", id.Name, err)
		}
		st = &fresh
		status = model.StatusReachableEmpty
		res.Started = true
	}
	res.State = *st

	// Fast path for repeated shell startups: a populated agent means no
	// filesystem scan and no fingerprint probing at all. Note this also
	// skips explicit source requests, matching historical behavior.
	if opts.Session && status == model.StatusHasKeys {
		logging.Debugf("agent %q already has keys, skipping key loading", id.Name)
		return res, nil
	}

	sources := opts.Sources
	if opts.AddDefault && opts.DefaultDir != "" {
		sources = append([]string{opts.DefaultDir}, sources...)
	}
	if len(sources) == 0 {
		return res, nil
	}

	loaded := s.conn.LoadedFingerprints(ctx, st)
	for _, src := range sources {
		for _, path := range s.candidates(src) {
			s.addKey(ctx, st, path, loaded, opts.Add)
		}
	}
	return res, nil
}

// candidates enumerates the key candidates of one source: the file itself,
// or the immediate children of a directory (depth exactly 1).
func (s *Supervisor) candidates(source string) []string {
	info, err := os.Stat(source)
	if err != nil {
		logging.Debugf("skipping source %s: %v", source, err)
		return nil
	}
	if !info.IsDir() {
		return []string{source}
	}
	entries, err := os.ReadDir(source)
	if err != nil {
		logging.Debugf("skipping source %s: %v", source, err)
		return nil
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(source, e.Name()))
	}
	return paths
}

// addKey runs one candidate through the classifier and the fingerprint
// dedup, then submits it. Every failure here is recoverable and debug-only;
// the next invocation is the retry mechanism.
func (s *Supervisor) addKey(ctx context.Context, st *model.AgentState, path string, loaded map[string]bool, opts model.AddOptions) {
	if !s.isKey(path) {
		logging.Debugf("skipping %s: not a private key", path)
		return
	}
	fp, err := s.fingerprint(path)
	if err != nil {
		// Dedup is best-effort: without a fingerprint the add is still
		// attempted and the agent has the final word.
		logging.Debugf("no fingerprint for %s: %v", path, err)
	} else if loaded[fp] {
		logging.Debugf("skipping %s: already loaded (%s)", path, fp)
		return
	}
	if err := s.conn.AddKey(ctx, st, path, opts); err != nil {
		logging.Debugf("could not add %s: %v", path, err)
		return
	}
	logging.Debugf("added key %s", path)
	if fp != "" {
		loaded[fp] = true
	}
}
