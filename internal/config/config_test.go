// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.
package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	cfg "github.com/eldios/ssh-agents/internal/config"
)

func isolateConfig(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmp)
	t.Setenv("HOME", tmp)
	t.Setenv("SSH_AGENTS_AGENT_NAME", "")
	return tmp
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfig(t)
	c, err := cfg.Load(&cobra.Command{}, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Agent.Name != "global" {
		t.Fatalf("expected default agent name 'global', got %q", c.Agent.Name)
	}
	if c.Keys.Lifetime != 0 {
		t.Fatalf("expected zero default lifetime, got %d", c.Keys.Lifetime)
	}
	if c.Keys.Dir == "" {
		t.Fatalf("expected a default key directory")
	}
}

func TestLoad_ExplicitFile(t *testing.T) {
	tmp := isolateConfig(t)
	path := filepath.Join(tmp, "custom.yaml")
	content := "agent:\n  name: work\nkeys:\n  lifetime: 30\nshell: fish\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c, err := cfg.Load(&cobra.Command{}, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Agent.Name != "work" || c.Keys.Lifetime != 30 || c.Shell != "fish" {
		t.Fatalf("config file not applied: %+v", c)
	}
}

func TestLoad_MissingExplicitFileIsError(t *testing.T) {
	tmp := isolateConfig(t)
	if _, err := cfg.Load(&cobra.Command{}, filepath.Join(tmp, "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config file")
	}
}

func TestEnsureDefault_WritesOnceOnly(t *testing.T) {
	tmp := isolateConfig(t)
	if err := cfg.EnsureDefault(); err != nil {
		t.Fatalf("EnsureDefault failed: %v", err)
	}
	path := filepath.Join(tmp, "ssh-agents", "ssh-agents.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected config file at %s: %v", path, err)
	}

	// A second call must not clobber user edits.
	edited := append(data, []byte("# user edit\n")...)
	if err := os.WriteFile(path, edited, 0o600); err != nil {
		t.Fatalf("edit config: %v", err)
	}
	if err := cfg.EnsureDefault(); err != nil {
		t.Fatalf("EnsureDefault failed: %v", err)
	}
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(after) != string(edited) {
		t.Fatalf("EnsureDefault overwrote an existing config file")
	}
}

// Seeding the config file must not promote one invocation's flags into
// durable defaults: a later bare invocation still resolves "global".
func TestEnsureDefault_FlagsDoNotBecomeDefaults(t *testing.T) {
	isolateConfig(t)

	cmd := &cobra.Command{}
	cmd.Flags().StringP("name", "n", "global", "")
	cmd.Flags().BoolP("debug", "d", false, "")
	if err := cmd.Flags().Set("name", "work"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	if err := cmd.Flags().Set("debug", "true"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	c, err := cfg.Load(cmd, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Agent.Name != "work" || !c.Debug {
		t.Fatalf("flags not applied to this invocation: %+v", c)
	}

	if err := cfg.EnsureDefault(); err != nil {
		t.Fatalf("EnsureDefault failed: %v", err)
	}

	bare, err := cfg.Load(&cobra.Command{}, "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if bare.Agent.Name != "global" || bare.Debug {
		t.Fatalf("seeded config changed the defaults: name=%q debug=%v, want global/false",
			bare.Agent.Name, bare.Debug)
	}
}
