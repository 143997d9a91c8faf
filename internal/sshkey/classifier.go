// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.

// Package sshkey decides which files are loadable private keys and computes
// the fingerprint used to deduplicate keys against an agent's loaded set.
package sshkey

import (
	"bytes"
	"os"
)

// privateKeyMarker appears in every PEM armor openssh understands
// ("BEGIN OPENSSH PRIVATE KEY", "BEGIN RSA PRIVATE KEY", "BEGIN EC PRIVATE
// KEY", "BEGIN PRIVATE KEY", ...). A plain substring scan is enough to tell
// key material apart from public keys, known_hosts and config files.
var privateKeyMarker = []byte("PRIVATE KEY")

// IsPrivateKey reports whether path looks like a loadable private key file.
// It is a best-effort textual scan, not a format parser: directories,
// unreadable files and files without the marker simply yield false, never an
// error.
func IsPrivateKey(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return bytes.Contains(data, privateKeyMarker)
}
