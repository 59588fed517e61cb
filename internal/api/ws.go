package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cesargomez89/versecache/internal/events"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// StreamEvents upgrades the connection and fans hub events out as JSON
// frames. Optional ?kinds=task,content filters the stream.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("WebSocket upgrade failed", "error", err)
		return
	}

	var kinds []events.Kind
	if raw := r.URL.Query().Get("kinds"); raw != "" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kinds = append(kinds, events.Kind(k))
			}
		}
	}

	stream, cancel := h.Hub.Subscribe(kinds...)
	defer cancel()
	defer conn.Close()

	h.Logger.Debug("WebSocket subscriber connected", "remote", r.RemoteAddr)

	// Reader goroutine: drains control frames and detects disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				h.Logger.Debug("WebSocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
