package ws

import "sync"

// peer is the send side of a connection; split out so the hub and broadcaster
// can be exercised without real sockets.
type peer interface {
	send(v any) error
	close()
}

// Hub keeps the live connections by identifier. Delivery is best-effort: a
// peer whose send fails is dropped and its reader goroutine handles the rest
// of the cleanup.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]peer
}

func NewHub() *Hub { return &Hub{conns: map[string]peer{}} }

func (h *Hub) Add(connID string, p peer) {
	h.mu.Lock()
	h.conns[connID] = p
	h.mu.Unlock()
}

func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	delete(h.conns, connID)
	h.mu.Unlock()
}

// SendTo delivers one event to one connection, if it is still around.
func (h *Hub) SendTo(connID string, v any) {
	h.mu.RLock()
	p, ok := h.conns[connID]
	h.mu.RUnlock()

	if !ok {
		return
	}
	if err := p.send(v); err != nil {
		h.drop(connID, p)
	}
}

// SendMany delivers one event to a set of connections.
func (h *Hub) SendMany(connIDs []string, v any) {
	// Take a quick snapshot of the current connections
	h.mu.RLock()
	targets := make(map[string]peer, len(connIDs))
	for _, id := range connIDs {
		if p, ok := h.conns[id]; ok {
			targets[id] = p
		}
	}
	h.mu.RUnlock()

	// Do the I/O outside the lock
	for id, p := range targets {
		if err := p.send(v); err != nil {
			h.drop(id, p)
		}
	}
}

// SendAll delivers one event to every live connection.
func (h *Hub) SendAll(v any) {
	h.mu.RLock()
	targets := make(map[string]peer, len(h.conns))
	for id, p := range h.conns {
		targets[id] = p
	}
	h.mu.RUnlock()

	for id, p := range targets {
		if err := p.send(v); err != nil {
			h.drop(id, p)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) drop(connID string, p peer) {
	h.mu.Lock()
	delete(h.conns, connID)
	h.mu.Unlock()
	p.close()
}
