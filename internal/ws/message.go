package ws

import "encoding/json"

// Message represents a WebSocket message with type-based routing.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message types - Hider commands
const (
	TypeSelectHideout = "select_hideout"
	TypeCancelHide    = "cancel_hide"
	TypeConfirmHide   = "confirm_hide"
	TypeAnswer        = "answer"
	TypeReset         = "reset"
)

// Message types - Location lookup
const (
	TypeSearchLocations  = "search_locations"
	TypePopularLocations = "popular_locations"
	TypeSearchResults    = "search_results"
)

// Message types - Game events
const (
	TypeSessionState   = "session_state"
	TypeSeekerReleased = "seeker_released"
	TypeQuestion       = "question"
	TypeResult         = "result"
	TypeSeekerMoved    = "seeker_moved"
)

// Message types - System
const (
	TypeError = "error"
)

// ErrorMessage is sent when an error occurs.
type ErrorMessage struct {
	Message string `json:"message"`
}

// NewErrorMessage creates a Message with an error payload.
func NewErrorMessage(msg string) Message {
	data, _ := json.Marshal(ErrorMessage{Message: msg})
	return Message{Type: TypeError, Data: data}
}

// NewMessage creates a Message with a typed payload.
func NewMessage(msgType string, payload any) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: data}, nil
}

// Decode unmarshals the payload into v. An empty payload leaves v untouched.
func (m Message) Decode(v any) error {
	if len(m.Data) == 0 {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}
