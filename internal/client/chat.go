package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/bubingachat/internal/chat"
)

// ChatConn is one connection to the shared room.
type ChatConn struct {
	conn     *websocket.Conn
	username string
	now      func() time.Time
}

// WSURL maps an http(s) server base URL to its /ws endpoint.
func WSURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	return u.String(), nil
}

// Dial joins the room at wsURL. Messages sent through the connection carry
// username as their sender.
func Dial(ctx context.Context, wsURL, username string, header http.Header) (*ChatConn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	return &ChatConn{conn: conn, username: username, now: time.Now}, nil
}

// Send posts text to the room and returns the message as sent.
func (c *ChatConn) Send(text string) (chat.Message, error) {
	msg := chat.Message{
		ID:       uuid.NewString(),
		Username: c.username,
		Text:     text,
		Time:     c.now().Format("15:04"),
	}

	frame, err := chat.Encode(chat.EventSendMessage, msg)
	if err != nil {
		return chat.Message{}, err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return chat.Message{}, err
	}
	return msg, nil
}

// Receive blocks until the next receive_message event. Frames with any
// other event name are skipped.
func (c *ChatConn) Receive() (chat.Message, error) {
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			return chat.Message{}, err
		}

		ev, msg, err := chat.Decode(frame)
		if err != nil || ev.Event != chat.EventReceiveMessage {
			continue
		}
		return msg, nil
	}
}

func (c *ChatConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
