package controlplane

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ledgrid/ledctld/internal/status"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pushPeriod = 33 * time.Millisecond // ~30Hz, coalesced if a subscriber can't keep up
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// statusWS upgrades the connection and pushes a JSON Stats snapshot on
// every tick of its own push ticker, coalescing bursts so a slow
// subscriber only ever sees the latest snapshot rather than a growing
// backlog.
func (s *Server) statusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("controlplane: websocket upgrade failed")
		return
	}
	go s.pushStatus(conn)
}

// pushStatus is the write pump: it owns the connection exclusively
// (gorilla/websocket forbids concurrent writers) and exits on the first
// write failure, mirroring a ping-driven write pump but
// pushing Status snapshots instead of polling a remote machine.
func (s *Server) pushStatus(conn *websocket.Conn) {
	defer conn.Close()

	pushTicker := time.NewTicker(pushPeriod)
	defer pushTicker.Stop()
	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	var lastSent status.Stats
	first := true

	for {
		select {
		case <-pushTicker.C:
			snap := s.statusPub.Snapshot()
			if !first && snap == lastSent {
				continue
			}
			first = false
			lastSent = snap

			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				return
			}

		case <-pingTicker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
