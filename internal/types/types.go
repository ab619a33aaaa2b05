package types

import "encoding/json"

type ClientMessage struct {
	Type   string `json:"type"` // "join" | "guess" | "skip"
	Pseudo string `json:"pseudo,omitempty"`
	Text   string `json:"text,omitempty"`
}

type ServerMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewServerMessage(eventType string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ServerMessage{Type: eventType, Data: data})
}
