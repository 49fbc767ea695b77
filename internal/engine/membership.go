package engine

// RoomMembership tracks which connections joined which rooms. The forward
// index (room -> connections) and reverse index (connection -> rooms) are
// always mutated together within one method call; the gateway loop serializes
// those calls, which keeps the pair consistent without locks.
type RoomMembership struct {
	rooms map[string]map[string]struct{}
	conns map[string]map[string]struct{}
}

// NewRoomMembership constructs empty membership indices.
func NewRoomMembership() *RoomMembership {
	return &RoomMembership{
		rooms: make(map[string]map[string]struct{}),
		conns: make(map[string]map[string]struct{}),
	}
}

// Join adds the connection to the room. Idempotent; reports whether the
// membership was newly added.
func (m *RoomMembership) Join(roomID, connID string) bool {
	members, ok := m.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		m.rooms[roomID] = members
	}
	if _, exists := members[connID]; exists {
		return false
	}
	members[connID] = struct{}{}

	rooms, ok := m.conns[connID]
	if !ok {
		rooms = make(map[string]struct{})
		m.conns[connID] = rooms
	}
	rooms[roomID] = struct{}{}
	return true
}

// Leave removes the connection from the room. Idempotent; an empty room is
// garbage-collected. Reports whether a membership was actually removed.
func (m *RoomMembership) Leave(roomID, connID string) bool {
	members, ok := m.rooms[roomID]
	if !ok {
		return false
	}
	if _, exists := members[connID]; !exists {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(m.rooms, roomID)
	}

	if rooms, ok := m.conns[connID]; ok {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(m.conns, connID)
		}
	}
	return true
}

// LeaveAll removes the connection from every room it joined and returns the
// affected room IDs. Runs in O(rooms of the connection) via the reverse
// index, not O(all rooms).
func (m *RoomMembership) LeaveAll(connID string) []string {
	rooms, ok := m.conns[connID]
	if !ok {
		return nil
	}
	affected := make([]string, 0, len(rooms))
	for roomID := range rooms {
		affected = append(affected, roomID)
		if members, ok := m.rooms[roomID]; ok {
			delete(members, connID)
			if len(members) == 0 {
				delete(m.rooms, roomID)
			}
		}
	}
	delete(m.conns, connID)
	return affected
}

// MembersOf returns the connection IDs joined to the room. The returned set
// is the live index; callers must not mutate it.
func (m *RoomMembership) MembersOf(roomID string) map[string]struct{} {
	return m.rooms[roomID]
}

// RoomsOf returns the room IDs the connection has joined.
func (m *RoomMembership) RoomsOf(connID string) []string {
	rooms := m.conns[connID]
	if len(rooms) == 0 {
		return nil
	}
	out := make([]string, 0, len(rooms))
	for roomID := range rooms {
		out = append(out, roomID)
	}
	return out
}

// IsMember reports whether the connection has joined the room.
func (m *RoomMembership) IsMember(roomID, connID string) bool {
	_, ok := m.rooms[roomID][connID]
	return ok
}

// RoomCount returns the number of rooms with at least one member.
func (m *RoomMembership) RoomCount() int {
	return len(m.rooms)
}
