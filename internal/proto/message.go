package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeIdentify    = "identify"
	InboundTypeJoin        = "join"
	InboundTypeLeave       = "leave"
	InboundTypeMsg         = "msg"
	InboundTypeTypingStart = "typing_start"
	InboundTypeTypingStop  = "typing_stop"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventConnected    = "connected"
	EventMessageName  = "message"
	EventHistoryName  = "history"
	EventUserJoined   = "user_joined"
	EventUserLeft     = "user_left"
	EventTyping       = "typing"
	EventStopTyping   = "stop_typing"
	EventNotification = "notification"
)

// IdentifyData binds the connection to an authenticated user.
type IdentifyData struct {
	Token    string `json:"token"`
	Protocol int    `json:"protocol,omitempty"`
}

// RoomData addresses a single room (join, leave, typing).
type RoomData struct {
	Room string `json:"room"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	Room string `json:"room"`
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ConnectedData acknowledges a successful identify.
type ConnectedData struct {
	User     string `json:"user"`
	Protocol int    `json:"protocol"`
}

// MessageData is a room message fanned out to members.
type MessageData struct {
	ID   string `json:"id,omitempty"`
	Room string `json:"room"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

// HistoryData carries recent room messages, oldest first.
type HistoryData struct {
	Room     string        `json:"room"`
	Messages []MessageData `json:"messages"`
}

// PresenceData notifies that a user joined or left a room.
type PresenceData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// TypingData notifies that a user started or stopped typing.
type TypingData struct {
	Room string `json:"room"`
	User string `json:"user"`
}

// NotificationData is a per-user activity notice.
type NotificationData struct {
	Kind string `json:"kind"`
	From string `json:"from"`
	Room string `json:"room,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
