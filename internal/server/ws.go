package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/Palmergill/poker-app/internal/broadcast"
	"github.com/Palmergill/poker-app/internal/game"
	"github.com/Palmergill/poker-app/internal/table"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
)

// Application close codes for subscription rejections.
const (
	closeUnauthenticated = 4001
	closeNotParticipant  = 4003
)

// handleSubscribe upgrades the connection, authenticates via the token query
// parameter, verifies the caller holds a seat at the table and streams
// snapshots. The current snapshot is always the first frame.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}

	id, err := s.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		closeWith(conn, closeUnauthenticated, "invalid token")
		return
	}

	c, ok := s.tables.Get(r.PathValue("id"))
	if !ok {
		closeWith(conn, closeNotParticipant, "unknown table")
		return
	}

	ctx, cancel := commandContext(r)
	sub, snap, err := c.Attach(ctx, id.PlayerID)
	cancel()
	if err != nil {
		switch {
		case errors.Is(err, game.ErrNotSeated):
			closeWith(conn, closeNotParticipant, "not a participant")
		default:
			closeWith(conn, websocket.CloseInternalServerErr, "internal error")
		}
		return
	}

	sess := &subscription{
		conn:       conn,
		controller: c,
		sub:        sub,
		first:      snap,
		logger:     s.logger.WithPrefix("ws").With("table", c.ID(), "player", id.PlayerID),
	}
	go sess.writePump()
	go sess.readPump()
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	_ = conn.Close()
}

// subscription is one attached snapshot stream.
type subscription struct {
	conn       *websocket.Conn
	controller *table.Controller
	sub        *broadcast.Subscriber
	first      *table.Snapshot
	logger     *log.Logger
}

// writePump delivers the attach snapshot and then drains the subscriber's
// queue in order. The subscriber channel closing (detach or drop) ends the
// connection.
func (s *subscription) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.controller.Detach(s.sub)
		_ = s.conn.Close()
	}()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(broadcast.Message{Kind: broadcast.KindSnapshot, Data: s.first}); err != nil {
		return
	}

	for {
		select {
		case msg, ok := <-s.sub.C():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug("write failed", "err", err)
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; the push channel is one-way. Its only job
// is noticing the peer going away.
func (s *subscription) readPump() {
	defer func() {
		s.controller.Detach(s.sub)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(512)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("read failed", "err", err)
			}
			return
		}
	}
}
