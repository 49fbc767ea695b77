package engine

import "time"

// EventKind is a notification the engine emits to connections.
type EventKind int

const (
	// EventConnected acknowledges a successful identify.
	EventConnected EventKind = iota
	// EventRoomMessage carries a chat message to room members.
	EventRoomMessage
	// EventHistory delivers recent room messages to a joining connection.
	EventHistory
	// EventUserJoined notifies room members that an identity joined.
	EventUserJoined
	// EventUserLeft notifies room members that an identity left.
	EventUserLeft
	// EventTyping notifies room members that an identity started typing.
	EventTyping
	// EventStopTyping notifies room members that an identity stopped typing.
	EventStopTyping
	// EventNotification is a direct, identity-targeted notification.
	EventNotification
	// EventError reports a domain error to the offending connection only.
	EventError
)

// Event describes something that happened in the system. Room and User carry
// the canonical room key and the acting identity where applicable.
type Event struct {
	Kind         EventKind
	Room         string
	User         string
	Message      *Message
	Messages     []*Message // EventHistory only
	Notification *Notification
	Error        *EngineError
	At           time.Time
}

// Message is the engine's view of a chat message. ID and CreatedAt come from
// the persistence collaborator once the message has been durably stored.
type Message struct {
	ID        string
	Room      string
	From      string
	Text      string
	CreatedAt time.Time
}

// Notification tells an identity that something happened for it outside the
// connection's current room subscriptions.
type Notification struct {
	Kind string
	From string
	Room string
}
