// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/eldios/ssh-agents/internal/model"
)

// Dialect selects the shell syntax used for the exported assignments.
type Dialect int

const (
	DialectSh Dialect = iota
	DialectCsh
	DialectFish
)

// ParseDialect maps a dialect name to its Dialect. The accepted names are
// shell basenames, so $SHELL values resolve directly.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "sh", "bash", "zsh", "dash", "ash", "ksh":
		return DialectSh, nil
	case "csh", "tcsh":
		return DialectCsh, nil
	case "fish":
		return DialectFish, nil
	}
	return DialectSh, fmt.Errorf("unsupported shell dialect %q", name)
}

// DetectDialect picks the dialect for the invoking shell from a $SHELL
// value like "/usr/bin/fish". Unrecognized or empty values fall back to sh,
// the dialect every POSIX shell understands.
func DetectDialect(shellEnv string) Dialect {
	d, err := ParseDialect(filepath.Base(shellEnv))
	if err != nil {
		return DialectSh
	}
	return d
}

// Export renders the agent coordinates as statements for the target shell.
// Variables with empty values are omitted entirely.
func Export(d Dialect, st model.AgentState) string {
	var sb strings.Builder
	for _, kv := range [][2]string{
		{model.EnvAgentName, st.Name},
		{model.EnvAgentPID, pidString(st.PID)},
		{model.EnvAuthSock, st.Socket},
	} {
		if kv[1] == "" {
			continue
		}
		switch d {
		case DialectCsh:
			fmt.Fprintf(&sb, "setenv %s %s;\n", kv[0], kv[1])
		case DialectFish:
			fmt.Fprintf(&sb, "set -gx %s %s;\n", kv[0], kv[1])
		default:
			fmt.Fprintf(&sb, "%s=%s; export %s;\n", kv[0], kv[1], kv[0])
		}
	}
	return sb.String()
}

func pidString(pid int) string {
	if pid <= 0 {
		return ""
	}
	return strconv.Itoa(pid)
}
