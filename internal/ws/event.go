package ws

// Event is the JSON frame exchanged over the socket in both directions.
// Inbound frames only use Type and RoomID.
type Event struct {
	Type    string      `json:"type"`
	RoomID  string      `json:"room_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Inbound event types
const (
	EventJoinChat   = "joinChat"
	EventLeaveChat  = "leaveChat"
	EventTyping     = "typing"
	EventStopTyping = "stopTyping"
)

// Outbound event types
const (
	EventMessageReceived = "messageReceived"
	EventJoinedChat      = "joinedChat"
	EventLeftChat        = "leftChat"
	EventError           = "error"
)

// TypingPayload is relayed with typing/stopTyping
type TypingPayload struct {
	UserID string `json:"user_id"`
}

// ErrorPayload is sent back to the originating connection only
type ErrorPayload struct {
	Message string `json:"message"`
}

func errorEvent(roomID, message string) *Event {
	return &Event{Type: EventError, RoomID: roomID, Payload: ErrorPayload{Message: message}}
}
