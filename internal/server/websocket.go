package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/zeusync/duelist/internal/core/observability/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	duel, err := h.admit(r)
	if err != nil {
		http.Error(w, err.Error(), httpStatus(err))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	v := h.join(duel)
	h.workers.Add(1)
	go h.writeLoop(conn, v)

	// Viewers only listen; reading drains control frames and notices the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.leave(duel, v)
}

func (h *Hub) writeLoop(conn *websocket.Conn, v *viewer) {
	defer h.workers.Done()
	defer func() { _ = conn.Close() }()

	for {
		select {
		case payload := <-v.send:
			_ = conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				v.close()
				return
			}
		case <-v.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "hub stopping")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}
