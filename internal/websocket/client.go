package websocket

import (
	"context"
	"time"

	"pairchat/internal/chat"
	"pairchat/pkg/logger"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// Client pairs one websocket connection with its core-side session. The
// read pump feeds inbound events to the dispatcher; the write pump drains
// the session's outbound queue.
type Client struct {
	conn       *websocket.Conn
	session    *chat.Session
	dispatcher *chat.Dispatcher
}

func NewClient(conn *websocket.Conn, session *chat.Session, dispatcher *chat.Dispatcher) *Client {
	return &Client{
		conn:       conn,
		session:    session,
		dispatcher: dispatcher,
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.dispatcher.Disconnect(c.session)
		c.session.Close()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket error on session %s: %v", c.session.ID, err)
			}
			break
		}

		c.dispatcher.Handle(context.Background(), c.session, raw)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.session.Out():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Session closed, either on disconnect or when superseded
				// by a newer login.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Error("Write error on session %s: %v", c.session.ID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
