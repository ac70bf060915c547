package server

import (
	"sync"
	"time"

	"resumelens/internal/shell"
)

type shellEntry struct {
	sh      *shell.Shell
	touched time.Time
}

// shellRegistry holds one UI shell per session. Shells are created lazily
// on first touch; entries untouched for the idle TTL are evicted by the
// sweeper, so cookie-less clients minting fresh sessions cannot grow the
// map without bound.
type shellRegistry struct {
	mu     sync.Mutex
	shells map[string]*shellEntry
	done   chan struct{}
}

func newShellRegistry() *shellRegistry {
	return &shellRegistry{
		shells: make(map[string]*shellEntry),
		done:   make(chan struct{}),
	}
}

// get returns the shell for a session, creating it on first use and
// refreshing its idle clock.
func (r *shellRegistry) get(sessionID string) *shell.Shell {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.shells[sessionID]
	if !ok {
		entry = &shellEntry{sh: shell.NewShell()}
		r.shells[sessionID] = entry
	}
	entry.touched = time.Now()
	return entry.sh
}

// size reports how many session shells are live.
func (r *shellRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shells)
}

// startSweeper evicts shells untouched for ttl. A ttl of 0 disables
// eviction.
func (r *shellRegistry) startSweeper(interval, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.sweep(ttl)
			case <-r.done:
				return
			}
		}
	}()
}

// sweep drops entries idle longer than ttl. An evicted session that comes
// back simply gets a fresh shell in its initial state.
func (r *shellRegistry) sweep(ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	for sessionID, entry := range r.shells {
		if now.Sub(entry.touched) > ttl {
			delete(r.shells, sessionID)
		}
	}
}

// stop terminates the sweeper goroutine.
func (r *shellRegistry) stop() {
	close(r.done)
}
