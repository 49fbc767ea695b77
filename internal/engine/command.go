package engine

// CommandKind describes what the connection wants the gateway to do.
type CommandKind int

const (
	// CommandIdentify binds the connection to a verified identity.
	CommandIdentify CommandKind = iota
	// CommandJoinRoom subscribes the connection to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the connection from a room.
	CommandLeaveRoom
	// CommandSendMessage persists a message and fans it out to room peers.
	CommandSendMessage
	// CommandTypingStart raises the typing indicator for the sender.
	CommandTypingStart
	// CommandTypingStop lowers the typing indicator for the sender.
	CommandTypingStop
)

// Command represents an action requested by a connection. Identity is filled
// only for CommandIdentify and must already be verified by the transport;
// the gateway trusts it as an authenticated input.
type Command struct {
	Kind     CommandKind
	Room     string
	Identity string
	Text     string
}
