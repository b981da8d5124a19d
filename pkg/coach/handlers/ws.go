package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sketch2solve/coach/pkg/coach/events"
)

// WSHandler serves /ws/{session_id}: it registers the connection as the
// session's event sink and reads (and discards) inbound frames until the
// peer goes away.
type WSHandler struct {
	Hub          *events.Hub
	Logger       *slog.Logger
	WriteTimeout time.Duration
}

func (h WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sink := &wsSink{conn: conn, writeTimeout: h.WriteTimeout}
	unregister := h.Hub.Register(sessionID, sink)
	defer unregister()

	// Inbound frames are keepalive only.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if h.Logger != nil {
				h.Logger.Debug("websocket closed", "session_id", sessionID, "error", err)
			}
			return
		}
	}
}

// wsSink serializes writes to one websocket connection; the hub may
// publish from any goroutine.
type wsSink struct {
	mu           sync.Mutex
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (s *wsSink) Send(msg any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.WriteJSON(msg)
}
