package server

import "strings"

// BroadcastMessage is one frame for the hub to fan out. Exclude, when set,
// is skipped; the chat relay leaves it nil so the sender gets its own echo.
type BroadcastMessage struct {
	Payload []byte
	Exclude *Client
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
