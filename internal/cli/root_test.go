// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.
package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolateEnv points HOME and the config search path at a fresh temp dir so
// command-level tests never touch the real state or config files.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("SSH_AGENT_NAME", "")
	t.Setenv("SSH_AUTH_SOCK", "")
	return home
}

func TestRootCmd_UnknownFlag(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--frobnicate"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestRootCmd_RejectsPositionalArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"stray"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for positional argument")
	}
}

func TestDirWritable(t *testing.T) {
	dir := t.TempDir()
	if !dirWritable(dir) {
		t.Fatalf("temp dir should be writable")
	}
	// A missing directory is judged by its nearest existing ancestor.
	if !dirWritable(filepath.Join(dir, "work")) {
		t.Fatalf("missing subdir of writable dir should count as writable")
	}
}

func TestDirWritable_Restricted(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks are meaningless for root")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	if err := os.Mkdir(locked, 0o500); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if dirWritable(locked) {
		t.Fatalf("read-only dir should not be writable")
	}
	if dirWritable(filepath.Join(locked, ".ssh")) {
		t.Fatalf("missing subdir of read-only dir should not be writable")
	}
}

// The unwritable-state-directory guard must produce a silent success: no
// stdout, exit 0, and no agent or store interaction.
func TestRun_UnwritableStateDirIsSilentSuccess(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks are meaningless for root")
	}
	home := t.TempDir()
	if err := os.Mkdir(filepath.Join(home, ".ssh"), 0o500); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("SSH_AGENT_NAME", "")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--add-all"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("guard must exit cleanly, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("guard must emit no output, got %q", out.String())
	}
}

func TestRun_RejectsNegativeLifetime(t *testing.T) {
	isolateEnv(t)
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--lifetime=-5"})
	err := cmd.Execute()
	if err == nil {
		t.Fatalf("expected error for negative lifetime")
	}
	if !strings.Contains(err.Error(), "lifetime") {
		t.Fatalf("error should name the lifetime setting: %v", err)
	}
}

func TestRun_RejectsUnknownShellDialect(t *testing.T) {
	isolateEnv(t)
	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"--shell", "powershell"})
	err := cmd.Execute()
	if err == nil {
		t.Fatalf("expected error for unsupported --shell value")
	}
	if !strings.Contains(err.Error(), "powershell") {
		t.Fatalf("error should name the rejected dialect: %v", err)
	}
}

// A failed agent start is the one fatal outcome: the command errors out with
// the agent's name and emits nothing for the shell to evaluate.
func TestRun_StartFailureIsFatal(t *testing.T) {
	home := isolateEnv(t)
	if err := os.MkdirAll(filepath.Join(home, ".ssh"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// An empty PATH makes the ssh-agent spawn fail without touching the
	// real system.
	t.Setenv("PATH", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	if err == nil {
		t.Fatalf("expected fatal error when the agent cannot be started")
	}
	if !strings.Contains(err.Error(), `cannot initialize agent "global"`) {
		t.Fatalf("unexpected error text: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("no export output expected after a failed start, got %q", out.String())
	}
}
