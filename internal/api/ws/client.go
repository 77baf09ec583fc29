package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/orrery-labs/orrery/backend/internal/shared/id"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxInboundBytes = 4096
)

type client struct {
	id   id.ClientID
	conn *websocket.Conn
	send chan Event
}

type inbound struct {
	Type string `json:"type"`
}

// readPump consumes inbound frames until the connection drops. The only
// meaningful inbound message is an application-level ping.
func (cl *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- cl:
		case <-h.done:
		}
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(maxInboundBytes)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg inbound
		if err := cl.conn.ReadJSON(&msg); err != nil {
			return
		}
		if h.metrics != nil {
			h.metrics.RecordWSMessage("in", msg.Type)
		}
		if msg.Type == "ping" {
			select {
			case cl.send <- NewEvent(EventPong, nil):
			default:
			}
		}
	}
}

// writePump drains the send queue and keeps the connection alive with
// protocol pings. Exits when the queue closes or a write fails.
func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := cl.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
