package api

import (
	"net/http"
	"time"

	ws "github.com/gorilla/websocket"
)

const (
	streamBuffer = 64
	writeWait    = 10 * time.Second
	pingPeriod   = 30 * time.Second
)

// handleStream pushes every parcel update to the client until either side closes.
// The subscription is taken before the upgrade so no event published after the
// handshake is missed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	events, unsubscribe := s.catalog.Subscribe(streamBuffer)
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.streams.Add(1)
	defer s.streams.Done()
	s.log.Debug("Parcel stream opened", "remote", r.RemoteAddr)

	// The client sends nothing; reading only surfaces close frames and errors.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			s.log.Debug("Parcel stream closed by client", "remote", r.RemoteAddr)
			return

		case <-s.done:
			msg := ws.FormatCloseMessage(ws.CloseGoingAway, "server shutting down")
			_ = conn.WriteControl(ws.CloseMessage, msg, time.Now().Add(writeWait))
			return

		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.log.Warn("WebSocket SetWriteDeadline error", "error", err)
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.log.Warn("WebSocket write error", "error", err)
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(ws.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
