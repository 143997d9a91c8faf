// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads the application configuration. Precedence, lowest to
// highest: built-in defaults, the ssh-agents.yaml config file, SSH_AGENTS_*
// environment variables, command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the user-tunable settings. Everything here has a working
// default; the config file is optional.
type Config struct {
	Agent struct {
		// Name selects the agent instance shared across shells.
		Name string `mapstructure:"name" yaml:"name"`
	} `mapstructure:"agent" yaml:"agent"`
	Keys struct {
		// Dir is the default directory scanned for keys with --add-all.
		Dir string `mapstructure:"dir" yaml:"dir"`
		// Lifetime, in minutes, limits how long added keys stay loaded.
		// Zero means forever.
		Lifetime int `mapstructure:"lifetime" yaml:"lifetime"`
	} `mapstructure:"keys" yaml:"keys"`
	// Shell forces an output dialect (sh, csh or fish); empty means
	// auto-detect from $SHELL.
	Shell string `mapstructure:"shell" yaml:"shell"`
	Debug bool   `mapstructure:"debug" yaml:"debug"`
}

// Defaults returns the built-in default values, keyed for viper.
func Defaults() map[string]any {
	sshDir := ""
	if home, err := os.UserHomeDir(); err == nil {
		sshDir = filepath.Join(home, ".ssh")
	}
	return map[string]any{
		"agent.name":    "global",
		"keys.dir":      sshDir,
		"keys.lifetime": 0,
		"shell":         "",
		"debug":         false,
	}
}

// getConfigPath returns the full path for the user configuration file.
func getConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(configDir, "ssh-agents", "ssh-agents.yaml"), nil
}

// Load builds the configuration for a command invocation. An explicit config
// file path (from --config) takes precedence over the standard search
// locations; a missing config file is not an error.
func Load(cmd *cobra.Command, explicitPath string) (Config, error) {
	var c Config
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("ssh-agents")
	v.SetConfigType("yaml")
	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	}
	if userConfigPath, err := getConfigPath(); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; anything else is a real config error.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if explicitPath != "" || !os.IsNotExist(err) {
				return c, err
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("ssh_agents")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind the flags that shadow config keys. An unchanged flag leaves the
	// config file and env values in charge; a set flag wins.
	for key, flag := range map[string]string{
		"agent.name":    "name",
		"keys.dir":      "key-dir",
		"keys.lifetime": "lifetime",
		"shell":         "shell",
		"debug":         "debug",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return c, err
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// EnsureDefault seeds the user config file with the built-in defaults when
// no file exists yet, so the available settings are discoverable without
// ever clobbering user edits. Only Defaults() values are written: the
// current invocation's flags must never become durable configuration.
func EnsureDefault() error {
	path, err := getConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	c := defaultConfig()
	return writeFile(&c, path)
}

// defaultConfig materializes Defaults() as a Config value.
func defaultConfig() Config {
	var c Config
	d := Defaults()
	c.Agent.Name = d["agent.name"].(string)
	c.Keys.Dir = d["keys.dir"].(string)
	c.Keys.Lifetime = d["keys.lifetime"].(int)
	c.Shell = d["shell"].(string)
	c.Debug = d["debug"].(bool)
	return c
}

// writeFile persists the configuration, creating the directory as needed.
func writeFile(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}

	return os.WriteFile(path, data, 0o600)
}
