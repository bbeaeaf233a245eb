package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mlm-landing/internal/observability"
	"mlm-landing/internal/session"
)

const (
	liveWriteWait  = 10 * time.Second
	liveReadLimit  = 512
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

// liveMessage is sent by the page. Only "scroll" is understood.
type liveMessage struct {
	Type string `json:"type"`
	Y    int    `json:"y"`
}

// handleLive upgrades to a WebSocket that pushes session state every
// PushInterval and applies scroll reports. It needs an existing session.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(r)
	if !ok {
		http.Error(w, "unknown session", http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.liveLog.Printf("Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	observability.RecordLiveConnection(1)
	defer observability.RecordLiveConnection(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.liveReadLoop(conn, sess, cancel)
	s.liveWriteLoop(ctx, conn, sess)
}

func (s *Server) liveReadLoop(conn *websocket.Conn, sess *session.Session, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(liveReadLimit)
	conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.liveLog.Printf("Read error: %v", err)
			}
			return
		}
		observability.RecordLiveMessage("in")

		var msg liveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.liveLog.Printf("Bad message from %s: %v", sess.ID, err)
			continue
		}
		if msg.Type == "scroll" {
			sess.Shell.SetScrollY(msg.Y)
		}
	}
}

func (s *Server) liveWriteLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	push := time.NewTicker(s.opts.PushInterval)
	defer push.Stop()
	ping := time.NewTicker(livePingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-push.C:
			// An open channel keeps the session alive; an expired one ends it.
			if _, ok := s.store.Get(sess.ID); !ok {
				conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "session expired"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteJSON(stateOf(sess)); err != nil {
				s.liveLog.Printf("Write error: %v", err)
				return
			}
			observability.RecordLiveMessage("out")
		}
	}
}
