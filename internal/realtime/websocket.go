package realtime

import (
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// DefaultWriteTimeout bounds a single push to a slow client.
const DefaultWriteTimeout = 5 * time.Second

type wsConn struct {
	mu      sync.Mutex
	ws      *websocket.Conn
	timeout time.Duration
}

// NewWebsocketConn adapts ws to Conn. Writes are serialized and fail once
// timeout elapses.
func NewWebsocketConn(ws *websocket.Conn, timeout time.Duration) Conn {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &wsConn{ws: ws, timeout: timeout}
}

func (c *wsConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	return websocket.JSON.Send(c.ws, v)
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
