package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeClick      MessageType = "click"
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeEvents     MessageType = "events"
	MessageTypeMatchFound MessageType = "matchFound"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorMessage builds an error envelope whose payload is a JSON string.
func ErrorMessage(msg string) Message {
	payload, _ := json.Marshal(msg)
	return Message{Type: MessageTypeError, Payload: payload}
}
