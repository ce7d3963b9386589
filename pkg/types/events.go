package types

import "time"

// EventType names a session lifecycle transition.
type EventType string

const (
	EventSessionCreated EventType = "session.created"
	EventSessionJoined  EventType = "session.joined"
	EventSessionEnded   EventType = "session.ended"
)

// SessionEvent is pushed to lobby subscribers after a transition commits.
// FUNCTIONAL DISCOVERY: Events are a refresh hint for listings, not a log;
// subscribers that miss one re-read the active listing
type SessionEvent struct {
	Type    EventType `json:"type"`
	Session *Session  `json:"session"`
	At      time.Time `json:"at"`
}
