// Package realtime tracks the live connection of each online user and pushes
// events to it. Delivery is best effort: offline users are skipped and
// nothing is queued.
package realtime

import (
	"log/slog"
	"sync"
)

// Conn is a live client connection.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Envelope is the frame written to clients.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type entry struct {
	conn Conn
}

// Hub maps a user id to at most one connection. A newer connection for the
// same user replaces and closes the older one.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*entry
	log   *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		conns: make(map[string]*entry),
		log:   logger.With("component", "hub"),
	}
}

// Register binds conn to userID and returns the function that unbinds it.
// Calling release after a newer connection took over is a no-op.
func (h *Hub) Register(userID string, conn Conn) (release func()) {
	e := &entry{conn: conn}

	h.mu.Lock()
	old := h.conns[userID]
	h.conns[userID] = e
	h.mu.Unlock()

	if old != nil {
		h.log.Debug("connection replaced", "user", userID)
		_ = old.conn.Close()
	}
	h.log.Debug("connection registered", "user", userID, "online", h.Len())

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			current := h.conns[userID] == e
			if current {
				delete(h.conns, userID)
			}
			h.mu.Unlock()
			if current {
				h.log.Debug("connection released", "user", userID, "online", h.Len())
			}
		})
	}
}

// Send writes event to the user's connection. Offline users are skipped
// silently and write failures are only logged.
func (h *Hub) Send(userID string, event string, payload any) {
	h.mu.RLock()
	e := h.conns[userID]
	h.mu.RUnlock()
	if e == nil {
		return
	}
	if err := e.conn.WriteJSON(Envelope{Event: event, Data: payload}); err != nil {
		h.log.Warn("push failed", "user", userID, "event", event, "error", err)
	}
}

// Online reports whether userID has a registered connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.conns[userID]
	return ok
}

// Len returns the number of connected users.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
