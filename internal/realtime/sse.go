package realtime

import (
	"net/http"
	"time"

	"github.com/mcoot/fleetgame-go/internal/model"
)

// ServeSSE streams the player's messages as server-sent events until the
// client disconnects or the hub closes. initial is sent right after the
// connected event.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, playerID model.PlayerID, initial ...Message) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(hub, playerID, "sse")
	hub.Register(client)
	defer hub.Unregister(client)

	connected, _ := NewMessage(TypeConnected, map[string]string{"status": "connected"})
	for _, msg := range append([]Message{connected}, initial...) {
		if _, err := w.Write(msg.SSE()); err != nil {
			return
		}
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-client.send:
			if !ok {
				return
			}
			if _, err := w.Write(msg.SSE()); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
