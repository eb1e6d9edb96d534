package realtime

import (
	"encoding/json"
	"strings"
)

// Message types pushed to clients
const (
	TypeConnected = "connected"
	TypeSnapshot  = "snapshot"
	TypeAck       = "ack"
	TypeError     = "error"
)

// Message is one frame sent to a client. Over SSE Type is the event name and
// Data the payload; over a websocket the whole message is one JSON frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewMessage encodes v as the payload of a message of type t
func NewMessage(t string, v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Data: data}, nil
}

// SSE formats the message as a server-sent event. Every payload line gets its
// own data field.
func (m Message) SSE() []byte {
	var b strings.Builder
	b.WriteString("event: " + m.Type + "\n")
	data := strings.ReplaceAll(string(m.Data), "\r", "")
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}
