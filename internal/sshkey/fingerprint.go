// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

package sshkey

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// ErrCompute is wrapped by Fingerprint when no fingerprint can be derived
// from a key file.
var ErrCompute = errors.New("cannot compute key fingerprint")

// Fingerprint returns the SHA256 fingerprint of the key pair at path, in the
// same "SHA256:..." form the agent reports for its loaded keys.
//
// For passphrase-protected keys the private block is opaque without the
// passphrase. Modern OpenSSH-format keys still expose their public half,
// which is used directly; for older formats the sibling "<path>.pub" file is
// consulted instead. If no public key can be recovered the error wraps
// ErrCompute.
func Fingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompute, err)
	}

	signer, parseErr := ssh.ParsePrivateKey(data)
	if parseErr == nil {
		return ssh.FingerprintSHA256(signer.PublicKey()), nil
	}

	// Encrypted OpenSSH-format keys carry their public key in the clear.
	var passErr *ssh.PassphraseMissingError
	if errors.As(parseErr, &passErr) && passErr.PublicKey != nil {
		return ssh.FingerprintSHA256(passErr.PublicKey), nil
	}

	// Last resort: a matching .pub file next to the private key.
	if pubData, pubErr := os.ReadFile(path + ".pub"); pubErr == nil {
		if pub, _, _, _, aerr := ssh.ParseAuthorizedKey(pubData); aerr == nil {
			return ssh.FingerprintSHA256(pub), nil
		}
	}

	return "", fmt.Errorf("%w: %v", ErrCompute, parseErr)
}
