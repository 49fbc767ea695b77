package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ConnState tracks the lifecycle of a single transport connection.
type ConnState int

const (
	// StateUnidentified is the initial state after transport connect.
	StateUnidentified ConnState = iota
	// StateIdentified means the connection is bound to a verified identity.
	StateIdentified
	// StateDisconnected is terminal; no further commands are accepted.
	StateDisconnected
)

// Conn is one live transport session as seen by the engine. An identity may
// own several concurrent connections (multi-tab, multi-device).
type Conn struct {
	ID        string
	CreatedAt time.Time

	// Commands is written by the transport read loop and drained into the
	// gateway inbox by a per-connection pump.
	Commands chan *Command
	// Events is drained by the transport write loop. Sends are non-blocking;
	// a full buffer means the event is dropped for that connection.
	Events chan *Event

	closeOnce sync.Once

	// Owned by the gateway loop.
	identity string
	state    ConnState
}

// NewConn constructs a connection handle with initialized channels.
func NewConn(buffer int) *Conn {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	return &Conn{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Commands:  make(chan *Command, buffer),
		Events:    make(chan *Event, buffer),
	}
}

// Close closes the command channel. Safe to call more than once. The gateway
// observes the disconnect after any already-queued commands drain, so command
// ordering per connection is preserved.
func (c *Conn) Close() {
	c.closeOnce.Do(func() { close(c.Commands) })
}
