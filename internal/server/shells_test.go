package server

import (
	"testing"
	"time"

	"resumelens/internal/credstore"
	"resumelens/internal/shell"
)

func TestShellRegistrySweepEvictsIdleSessions(t *testing.T) {
	r := newShellRegistry()

	r.get("idle-sid").SwitchTab(shell.TabATS)
	r.get("active-sid")

	r.mu.Lock()
	r.shells["idle-sid"].touched = time.Now().Add(-2 * time.Hour)
	r.mu.Unlock()

	r.sweep(time.Hour)

	if r.size() != 1 {
		t.Errorf("Live shells = %d, want 1", r.size())
	}

	// The evicted session gets a fresh shell in its initial state
	state := r.get("idle-sid").Render(credstore.User{}, false)
	if state.ActiveTab != shell.TabMatch {
		t.Errorf("Recreated shell active tab = %q, want %q", state.ActiveTab, shell.TabMatch)
	}
}

func TestShellRegistryGetRefreshesIdleClock(t *testing.T) {
	r := newShellRegistry()

	r.get("sid")
	r.mu.Lock()
	r.shells["sid"].touched = time.Now().Add(-2 * time.Hour)
	r.mu.Unlock()

	// Touching the shell marks the session as recently used
	r.get("sid")
	r.sweep(time.Hour)

	if r.size() != 1 {
		t.Error("Recently touched shell must not be evicted")
	}
}
