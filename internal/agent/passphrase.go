// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

package agent

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/eldios/ssh-agents/internal/i18n"
)

// terminalPassphrase prompts the operator for a key passphrase on the
// controlling terminal. The prompt goes to stderr so stdout stays clean for
// shell evaluation. Without a terminal there is nobody to ask, so the key is
// reported as not loadable.
func terminalPassphrase(path string) ([]byte, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, errors.New(i18n.T("key.passphrase_required", path))
	}
	fmt.Fprint(os.Stderr, i18n.T("key.passphrase_prompt", path))
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read passphrase: %w", err)
	}
	return pass, nil
}
