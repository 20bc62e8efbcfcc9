package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/idgen"
)

// sseKeepaliveInterval is how often keepalive comments are sent to prevent
// connection timeouts.
const sseKeepaliveInterval = 15 * time.Second

// handleEventStream handles GET /api/events/stream, the Server-Sent Events
// transport of the realtime hub. Each event's data line is the same envelope
// a WebSocket client receives.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	client := s.hub.add(idgen.ULID())
	defer s.hub.remove(client)

	greeting, err := connectedFrame(client.id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open stream")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering.
	w.WriteHeader(http.StatusOK)
	writeSSEEvent(w, hubMessage{Name: events.NameConnected, Frame: greeting})
	flusher.Flush()
	s.log.Info("realtime client connected", "client", client.id, "transport", "sse", "clients", s.hub.len())

	ctx := r.Context()
	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-client.ch:
			if !ok {
				return
			}
			writeSSEEvent(w, msg)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprintf(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes a single SSE event to the writer.
func writeSSEEvent(w http.ResponseWriter, msg hubMessage) {
	fmt.Fprintf(w, "event:%s\n", msg.Name)
	fmt.Fprintf(w, "data:%s\n\n", msg.Frame)
}
