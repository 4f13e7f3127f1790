package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/chessduel/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed between pongs before the peer is considered gone
	pongWait = 60 * time.Second

	// Time between pings, must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Largest inbound frame accepted
	maxMessageSize = 64 * 1024

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one websocket connection
type Client struct {
	id          model.ConnectionID
	conn        *websocket.Conn
	hub         *Hub
	send        chan []byte
	connectedAt time.Time

	mu     sync.Mutex
	closed bool
}

func newClient(id model.ConnectionID, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		id:          id,
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// enqueue reports false if the message could not be buffered
func (c *Client) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close stops the write loop, which closes the socket
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readLoop feeds inbound frames to events until the socket fails, then
// reports the disconnect
func (c *Client) readLoop(events EventHandler) {
	ctx := context.Background()
	defer func() {
		if c.hub.unregister(c) {
			events.Disconnect(ctx, c.id)
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("ws read failed",
					slog.String("conn", string(c.id)),
					slog.String("error", err.Error()))
			}
			return
		}

		env, err := decode(frame)
		if err != nil {
			c.hub.Emit(c.id, model.Event{
				Type:    model.EventRequestInvalid,
				Payload: model.RequestInvalidPayload{Reason: "malformed_frame"},
			})
			continue
		}
		events.Handle(ctx, c.id, env.Type, env.Payload)
	}
}

// writeLoop pumps queued messages to the socket and keeps it alive with pings
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
