// Package events fans server-generated session events out to at most one
// live subscriber per session id. Delivery is fire-and-forget: a publish
// with no subscriber is dropped, and a failed send evicts the subscriber.
package events

import (
	"log/slog"
	"sync"
)

// Sink is the delivery target for one subscriber. Send must be safe to call
// from multiple goroutines.
type Sink interface {
	Send(msg any) error
}

type subscriber struct {
	sink Sink
}

type Hub struct {
	mu     sync.Mutex
	subs   map[string]*subscriber
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		subs:   make(map[string]*subscriber),
		logger: logger,
	}
}

// Register binds sink as the sole subscriber for sessionID, silently
// replacing any prior subscriber. The returned unregister func removes the
// binding only if this sink is still the current one, so a stale
// connection's teardown cannot evict its replacement.
func (h *Hub) Register(sessionID string, sink Sink) (unregister func()) {
	entry := &subscriber{sink: sink}

	h.mu.Lock()
	h.subs[sessionID] = entry
	h.mu.Unlock()

	return func() { h.remove(sessionID, entry) }
}

// Publish attempts best-effort delivery to the current subscriber for
// sessionID. No subscriber is a no-op. A send failure evicts the subscriber
// and is never propagated to the publisher.
func (h *Hub) Publish(sessionID string, msg any) {
	h.mu.Lock()
	entry := h.subs[sessionID]
	h.mu.Unlock()

	if entry == nil {
		return
	}
	if err := entry.sink.Send(msg); err != nil {
		h.remove(sessionID, entry)
		h.logger.Debug("dropped dead subscriber", "session_id", sessionID, "error", err)
	}
}

func (h *Hub) remove(sessionID string, entry *subscriber) {
	h.mu.Lock()
	if h.subs[sessionID] == entry {
		delete(h.subs, sessionID)
	}
	h.mu.Unlock()
}

// Count reports the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
