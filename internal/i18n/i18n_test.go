// Copyright (c) 2026 eldios
// ssh-agents - persistent SSH agent manager for shell sessions
// This source code is licensed under the MIT license found in the LICENSE file.
package i18n

import (
	"strings"
	"testing"
)

func TestT_KnownMessage(t *testing.T) {
	Init("en")
	got := T("list.no_identities")
	if got != "The agent has no identities." {
		t.Fatalf("unexpected translation: %q", got)
	}
}

func TestT_Formatting(t *testing.T) {
	Init("en")
	got := T("agent.not_running", "work")
	if !strings.Contains(got, `"work"`) {
		t.Fatalf("expected formatted agent name, got %q", got)
	}
}

func TestT_UnknownIDFallsBack(t *testing.T) {
	Init("en")
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("expected ID fallback, got %q", got)
	}
}
