package ws

import "encoding/json"

// client → server
type Inbound struct {
	Event     string          `json:"event"`
	GameID    string          `json:"gameId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// server → client
type Outbound struct {
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

type AckPayload struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
