package controller

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func (c *controller) writeToConn(ctx context.Context, conn *websocket.Conn, out *Output) error {
	mu, _ := c.writeMus.LoadOrStore(conn, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	return conn.WriteJSON(out)
}

// broadcast delivers out to every conn, fire-and-forget: a failed write
// is logged and the rest of the room still receives the message.
func (c *controller) broadcast(ctx context.Context, conns []*websocket.Conn, out *Output) error {
	for _, conn := range conns {
		if err := c.writeToConn(ctx, conn, out); err != nil {
			c.logger.DebugContext(ctx, "failed to write to conn", "type", out.Type, "error", err)
		}
	}

	return nil
}
