package server

import (
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Tyrowin/bubingachat/internal/chat"
	"github.com/Tyrowin/bubingachat/internal/logging"
)

const (
	sendBufferSize = 256
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
)

// Client is one relay connection. Its pumps are started by the hub.
type Client struct {
	conn           *websocket.Conn
	send           chan []byte
	hub            *Hub
	addr           string
	closed         bool
	maxMessageSize int64
	logger         logging.Logger
}

// NewClient wraps conn. A maxMessageSize of 0 leaves frame size unlimited.
func NewClient(conn *websocket.Conn, hub *Hub, addr string, maxMessageSize int64, logger logging.Logger) *Client {
	if conn != nil && maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}

	return &Client{
		conn:           conn,
		send:           make(chan []byte, sendBufferSize),
		hub:            hub,
		addr:           addr,
		maxMessageSize: maxMessageSize,
		logger:         logger.With("addr", addr),
	}
}

func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn(c.hub.ctx, "error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// handleReadError logs err at a level matching how surprising it is.
func (c *Client) handleReadError(err error) {
	ctx := c.hub.ctx

	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn(ctx, "message exceeded maximum size", "limit", c.maxMessageSize)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Debug(ctx, "client closed connection", "reason", err)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.logger.Debug(ctx, "connection closed", "reason", err)
	case websocket.IsUnexpectedCloseError(err):
		c.logger.Warn(ctx, "unexpected websocket close", "error", err)
	default:
		c.logger.Warn(ctx, "websocket read error", "error", err)
	}
}

// processMessage relays a send_message frame to every client, the sender
// included. Anything else is logged and dropped.
func (c *Client) processMessage(raw []byte) bool {
	out, err := chat.Relay(raw)
	if err != nil {
		c.logger.Warn(c.hub.ctx, "dropping frame", "error", err)
		return false
	}

	return c.hub.Broadcast(c.hub.ctx, BroadcastMessage{Payload: out})
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
			c.logger.Warn(c.hub.ctx, "error closing connection in readPump", "error", err)
		}
	}()

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		c.processMessage(raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.send:
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

func (c *Client) closeConnection() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.logger.Warn(c.hub.ctx, "error closing connection in writePump", "error", err)
	}
}

// handleMessage writes one event per frame. A closed send channel means the
// hub dropped this client.
func (c *Client) handleMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
			c.logger.Debug(c.hub.ctx, "error writing close message", "error", err)
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn(c.hub.ctx, "error writing message", "error", err)
		}
		return false
	}
	return true
}

func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug(c.hub.ctx, "error writing ping", "error", err)
		return false
	}
	return true
}
