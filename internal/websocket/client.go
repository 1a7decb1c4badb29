package websocket

import (
	"context"
	"log/slog"
	"time"

	"github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is a single WebSocket connection bound to one household.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	householdID int64
	userID      int64
	logger      *slog.Logger
}

// NewClient wraps an accepted connection.
func NewClient(hub *Hub, conn *websocket.Conn, householdID, userID int64, logger *slog.Logger) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		householdID: householdID,
		userID:      userID,
		logger:      logger,
	}
}

// Run registers the client and pumps messages until the connection closes.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.readPump(ctx, cancel)
	c.writePump(ctx)
}

// readPump drains inbound frames. Clients do not send application data over
// the socket, but reading is required to process control frames.
func (c *Client) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				c.logger.Debug("websocket write failed", "user_id", c.userID, "error", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
