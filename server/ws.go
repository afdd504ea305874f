package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/hockeysim/hockeysim/sim"
	"github.com/hockeysim/hockeysim/sim/broadcast"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin policy is enforced by the cors middleware on the REST
	// surface; streams accept any origin so embedded scoreboards work.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream upgrades to WebSocket and relays the game's live feed. The
// first frame is always a state snapshot so late joiners can render
// immediately; event frames follow in sequence order.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	filter := parseKindFilter(r.URL.Query().Get("kinds"))

	sub, err := s.mgr.SubscribeGame(gameID, filter)
	if err != nil {
		s.writeManagerError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Cancel()
		s.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	log := s.log.WithFields(logrus.Fields{"game_id": gameID, "remote": conn.RemoteAddr().String()})
	log.Info("stream opened")

	go s.readPump(conn, sub)
	s.writePump(conn, sub, log)
}

// parseKindFilter turns a comma-separated kinds query into a broadcast
// filter. Empty or absent means all kinds.
func parseKindFilter(raw string) broadcast.Filter {
	if raw == "" {
		return nil
	}
	kinds := make([]sim.Kind, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			kinds = append(kinds, sim.Kind(part))
		}
	}
	return broadcast.NewFilter(kinds...)
}

// readPump drains client frames so pings and close handshakes are
// processed. Clients never send payloads we act on.
func (s *Server) readPump(conn *websocket.Conn, sub *broadcast.Subscription) {
	defer sub.Cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, sub *broadcast.Subscription, log *logrus.Entry) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Cancel()
		_ = conn.Close()
		log.Info("stream closed")
	}()

	for {
		select {
		case msg, ok := <-sub.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream ended"))
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			if msg.Type == broadcast.MessageOverflow {
				// The hub already cut this subscriber loose; tell the
				// client it must resubscribe for a fresh snapshot.
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "client too slow"))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
