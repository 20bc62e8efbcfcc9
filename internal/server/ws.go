package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alfredjeanlab/campus/internal/events"
	"github.com/alfredjeanlab/campus/internal/idgen"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	// Clients never send application messages; anything larger than a
	// control frame is a protocol violation.
	wsMaxMessageSize = 512
)

// connectedFrame returns the greeting sent to a newly connected client.
func connectedFrame(clientID string) ([]byte, error) {
	data, err := json.Marshal(events.Connected{ClientID: clientID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(events.Envelope{Event: events.NameConnected, Data: data})
}

// handleWebSocket handles GET /ws. Each connection is registered with the
// hub, greeted with a connected message and then sent every broadcast.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.log.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	client := s.hub.add(idgen.ULID())
	defer s.hub.remove(client)
	s.log.Info("realtime client connected", "client", client.id, "transport", "websocket", "clients", s.hub.len())
	defer s.log.Info("realtime client disconnected", "client", client.id, "transport", "websocket")

	// The read loop only watches for close and pong frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(wsMaxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	greeting, err := connectedFrame(client.id)
	if err != nil {
		s.log.Warn("failed to encode greeting", "error", err)
		return
	}
	if err := writeFrame(conn, websocket.TextMessage, greeting); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case msg, ok := <-client.ch:
			if !ok {
				_ = writeFrame(conn, websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := writeFrame(conn, websocket.TextMessage, msg.Frame); err != nil {
				return
			}
		case <-ping.C:
			if err := writeFrame(conn, websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, messageType int, data []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(messageType, data)
}
