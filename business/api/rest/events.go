package rest

import (
	"bytes"
	"encoding/json"
)

// EventType tags a streamed assist event.
type EventType string

const (
	EventMessage EventType = "message"
	EventError   EventType = "error"
	EventDone    EventType = "done"
)

// Event is one frame of an assist stream, sent as an SSE data line or a
// WebSocket text frame.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
}

// MessageEvent carries a response fragment, including in-band error text.
func MessageEvent(content string) Event {
	return Event{Type: EventMessage, Content: content}
}

// ErrorEvent reports a stream that could not be produced.
func ErrorEvent(content string) Event {
	return Event{Type: EventError, Content: content}
}

// DoneEvent terminates every stream.
func DoneEvent() Event {
	return Event{Type: EventDone}
}

// AssistRequest is the body accepted by the assist endpoints.
type AssistRequest struct {
	Query struct {
		Prompt string `json:"prompt"`
		ID     string `json:"id"`
	} `json:"query"`
}

// encodeEvent renders ev without HTML escaping so fragments stay readable.
func encodeEvent(ev Event) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
