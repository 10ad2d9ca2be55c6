package models

import "time"

// EventType labels a state-change event emitted by the engine.
type EventType string

const (
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventGameStarted  EventType = "game_started"
	EventPhaseChanged EventType = "phase_changed"
	EventRoleChanged  EventType = "role_changed"
	EventTagAccepted  EventType = "tag_accepted"
	EventTagRejected  EventType = "tag_rejected"
	EventHostChanged  EventType = "host_changed"
	EventGameEnded    EventType = "game_ended"
)

// Event is a state-change notification for the transport layer to fan out.
// The engine knows nothing about sockets; it only publishes these.
type Event struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"sessionId"`
	At        time.Time      `json:"at"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewEvent builds an event stamped with the current time.
func NewEvent(t EventType, sessionID string, payload map[string]any) Event {
	return Event{Type: t, SessionID: sessionID, At: time.Now(), Payload: payload}
}
