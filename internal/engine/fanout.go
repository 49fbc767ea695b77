package engine

// FanoutRouter delivers events to room members and to all connections of an
// identity. Delivery is fire-and-forget: a connection whose event buffer is
// full is skipped, not retried.
type FanoutRouter struct {
	registry   *ConnectionRegistry
	membership *RoomMembership
}

// NewFanoutRouter constructs a router over the given registry and membership.
func NewFanoutRouter(registry *ConnectionRegistry, membership *RoomMembership) *FanoutRouter {
	return &FanoutRouter{registry: registry, membership: membership}
}

// BroadcastToRoom pushes ev to every member connection of the room except
// excludeConnID and returns the number of connections the event was handed
// to. Exclusion is by connection, not identity: the sender's other tabs and
// devices still receive the echo, only the originating connection does not.
func (f *FanoutRouter) BroadcastToRoom(roomID string, ev *Event, excludeConnID string) int {
	delivered := 0
	for connID := range f.membership.MembersOf(roomID) {
		if connID == excludeConnID {
			continue
		}
		c := f.registry.Lookup(connID)
		if c == nil {
			continue
		}
		if deliver(c, ev) {
			delivered++
		}
	}
	return delivered
}

// UnicastToIdentity pushes ev to every live connection owned by the identity
// and returns the delivered count, 0 when the identity is offline. The caller
// decides whether zero deliveries should still produce a durable record.
func (f *FanoutRouter) UnicastToIdentity(identity string, ev *Event) int {
	delivered := 0
	for _, c := range f.registry.ConnectionsFor(identity) {
		if deliver(c, ev) {
			delivered++
		}
	}
	return delivered
}

func deliver(c *Conn, ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		// Drop if slow consumer.
		return false
	}
}
