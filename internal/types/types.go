package types

import "encoding/json"

// ClientMessage is one frame from the browser. Only the fields the Type uses
// are set.
type ClientMessage struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId,omitempty"`
	Value    string `json:"value,omitempty"`
	Password string `json:"password,omitempty"`
	Name     string `json:"name,omitempty"`
	Score    string `json:"score,omitempty"`
	Card     string `json:"card,omitempty"`
	Status   string `json:"status,omitempty"`
}

const (
	MsgView  = "View"
	MsgError = "Error"
)

type ServerMessage struct {
	Type    string          `json:"type"` // "View" | "Error"
	Version int             `json:"version,omitempty"`
	View    json.RawMessage `json:"view,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ErrorMessage builds an Error frame.
func ErrorMessage(msg string) []byte {
	b, _ := json.Marshal(ServerMessage{Type: MsgError, Error: msg})
	return b
}
