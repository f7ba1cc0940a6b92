// Package chat defines the realtime wire protocol: every WebSocket text
// frame is one Event envelope.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrEmptyData    = errors.New("event has no data")
)

// Event is the frame envelope. Data is kept raw so the relay can forward it
// without decoding the payload.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Message is the payload of send_message and receive_message. All fields are
// supplied by the sending client and not checked by the server.
type Message struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Text     string `json:"text"`
	Time     string `json:"time"`
}

// Relay turns an inbound frame into the frame to broadcast. Only
// send_message with data is relayed; its data passes through unmodified.
func Relay(frame []byte) ([]byte, error) {
	var in Event
	if err := json.Unmarshal(frame, &in); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	if in.Event != EventSendMessage {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, in.Event)
	}
	if len(in.Data) == 0 || string(in.Data) == "null" {
		return nil, ErrEmptyData
	}

	return json.Marshal(Event{Event: EventReceiveMessage, Data: in.Data})
}

// Encode wraps m in an event named name.
func Encode(name string, m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: name, Data: data})
}

// Decode parses frame and, for message events, its payload.
func Decode(frame []byte) (Event, Message, error) {
	var ev Event
	if err := json.Unmarshal(frame, &ev); err != nil {
		return Event{}, Message{}, fmt.Errorf("decode event: %w", err)
	}

	var m Message
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &m); err != nil {
			return ev, Message{}, fmt.Errorf("decode message: %w", err)
		}
	}
	return ev, m, nil
}
