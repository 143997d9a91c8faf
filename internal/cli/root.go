// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// root.go sets up the command-line interface for ssh-agents using the Cobra
// library: the single root command, its flag surface, and the run sequence
// of guard, supervisor and shell-export output.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/eldios/ssh-agents/buildvars"
	"github.com/eldios/ssh-agents/internal/agent"
	"github.com/eldios/ssh-agents/internal/config"
	"github.com/eldios/ssh-agents/internal/core"
	"github.com/eldios/ssh-agents/internal/i18n"
	"github.com/eldios/ssh-agents/internal/logging"
	"github.com/eldios/ssh-agents/internal/model"
	"github.com/eldios/ssh-agents/internal/state"
)

var cfgFile string

// newRootCmd creates and configures the root command. Tests create fresh
// instances for isolation.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ssh-agents",
		Short: "ssh-agents keeps one named ssh-agent alive across shell sessions",
		Long: `ssh-agents manages a persistent, named ssh-agent instance and the keys
loaded into it. The agent's coordinates are cached under ~/.ssh and
re-exported into every new shell, so repeated logins share one agent
instead of spawning their own.

The output is meant to be evaluated by the calling shell:

    eval "$(ssh-agents -s)"          # in ~/.bashrc or ~/.zshrc
    ssh-agents -a                    # load all keys from ~/.ssh
    ssh-agents -n work -k ~/work/id  # a separate agent for work keys`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         run,
	}

	cmd.Version = buildvars.VersionOrDefault("dev")

	cmd.Flags().StringVarP(&flagName, "name", "n", model.DefaultAgentName, "name of the agent instance")
	cmd.Flags().BoolVarP(&flagSession, "session", "s", false, "session-initializer mode for shell startup files")
	cmd.Flags().BoolVarP(&flagAddAll, "add-all", "a", false, "add every key found in the default key directory")
	cmd.Flags().StringArrayVarP(&flagKeys, "key", "k", nil, "key file or directory to add (repeatable)")
	cmd.Flags().BoolVarP(&flagConfirm, "confirm", "c", false, "require confirmation for every use of added keys")
	cmd.Flags().IntVarP(&flagLifetime, "lifetime", "t", 0, "minutes before added keys expire from the agent (0 = never)")
	cmd.Flags().BoolVarP(&flagList, "list", "l", false, "list the keys loaded into the agent")
	cmd.Flags().String("shell", "", "output dialect: sh, csh or fish (default: detect from $SHELL)")
	cmd.Flags().String("key-dir", "", "directory scanned by --add-all (default: ~/.ssh)")
	cmd.Flags().BoolVarP(&flagDebug, "debug", "d", false, "enable debug logging")
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: <user config dir>/ssh-agents/ssh-agents.yaml)")

	return cmd
}

var (
	flagName     string
	flagSession  bool
	flagAddAll   bool
	flagKeys     []string
	flagConfirm  bool
	flagLifetime int
	flagList     bool
	flagDebug    bool
)

// run is the whole program: restore or start the named agent, load keys,
// emit the export statements.
func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		return err
	}
	logging.SetDebug(cfg.Debug)
	if cfg.Keys.Lifetime < 0 {
		return fmt.Errorf("invalid lifetime %d: must be zero or a positive number of minutes", cfg.Keys.Lifetime)
	}

	id := model.NewIdentity(cfg.Agent.Name)
	dialect, err := resolveDialect(cfg)
	if err != nil {
		return err
	}

	baseDir := state.DefaultDir()
	if flagList {
		return runList(cmd, id, baseDir)
	}

	// Restricted environments (no writable ~/.ssh) get a silent success so
	// the tool stays safe to call unconditionally from shell startup files.
	if !dirWritable(filepath.Dir(state.PathFor(baseDir, id))) {
		logging.Debugf("state directory for %q not writable, doing nothing", id.Name)
		return nil
	}

	if !flagSession {
		seedDefaultConfig()
	}

	sup := core.New(state.NewAt(baseDir), agent.New())
	res, err := sup.Run(cmd.Context(), core.Options{
		Identity:   id,
		Session:    flagSession,
		AddDefault: flagAddAll,
		DefaultDir: cfg.Keys.Dir,
		Sources:    flagKeys,
		Add: model.AddOptions{
			Confirm:  flagConfirm,
			Lifetime: time.Duration(cfg.Keys.Lifetime) * time.Minute,
		},
	})
	if err != nil {
		if errors.Is(err, agent.ErrStartFailed) {
			return errors.New(i18n.T("agent.start_failed", id.Name, err))
		}
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), Export(dialect, res.State))
	return nil
}

// runList prints the loaded keys of the named agent. An unreachable agent is
// reported but still exits zero; asking about a stopped agent is not a fault.
func runList(cmd *cobra.Command, id model.AgentIdentity, baseDir string) error {
	st, _ := state.NewAt(baseDir).Load(id)
	lines, err := agent.New().List(cmd.Context(), st)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		return nil
	}
	if len(lines) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), i18n.T("list.no_identities"))
		return nil
	}
	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

// resolveDialect applies flag > config > $SHELL detection. The --shell flag
// arrives through cfg, bound ahead of the config file by viper. An explicit
// dialect must name a supported shell; only auto-detection falls back.
func resolveDialect(cfg config.Config) (Dialect, error) {
	if cfg.Shell != "" {
		return ParseDialect(cfg.Shell)
	}
	return DetectDialect(os.Getenv("SHELL")), nil
}

// dirWritable probes the nearest existing ancestor of dir for writability by
// creating and removing a temp file. Permission bits alone are unreliable
// across platforms and mounts.
func dirWritable(dir string) bool {
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
	f, err := os.CreateTemp(dir, ".ssh-agents-*")
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(f.Name())
	return true
}

// seedDefaultConfig writes a default config file on first run so the
// available settings are discoverable. Failures are ignored: configuration
// is optional and this must never break an invocation.
func seedDefaultConfig() {
	if err := config.EnsureDefault(); err != nil {
		logging.Debugf("could not write default config: %v", err)
	}
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
