package ws

import (
	"strings"
	"sync"
	"time"
)

const defaultUsername = "anon"

type connInfo struct {
	username    string
	connectedAt time.Time
}

// Tracker maps live connection identifiers to per-connection metadata. It is
// the only owner of that state; callers get copies.
type Tracker struct {
	mu    sync.RWMutex
	conns map[string]connInfo
}

func NewTracker() *Tracker {
	return &Tracker{conns: map[string]connInfo{}}
}

func (t *Tracker) Add(connID string) {
	t.mu.Lock()
	t.conns[connID] = connInfo{username: defaultUsername, connectedAt: time.Now()}
	t.mu.Unlock()
}

func (t *Tracker) Remove(connID string) {
	t.mu.Lock()
	delete(t.conns, connID)
	t.mu.Unlock()
}

// SetUsername stores the client's chosen name, defaulted and length-capped,
// and returns the name actually applied.
func (t *Tracker) SetUsername(connID, username string) string {
	username = clampRunes(strings.TrimSpace(username), maxUsernameLen)
	if username == "" {
		username = defaultUsername
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	info, ok := t.conns[connID]
	if !ok {
		return username
	}
	info.username = username
	t.conns[connID] = info
	return username
}

// Username resolves a connection to its display name. Unknown or departed
// connections resolve to the default.
func (t *Tracker) Username(connID string) string {
	if connID == "" {
		return ""
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if info, ok := t.conns[connID]; ok {
		return info.username
	}
	return defaultUsername
}

func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.conns)
}
