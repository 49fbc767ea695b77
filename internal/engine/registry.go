package engine

// ConnectionRegistry maps identities to their live connections. Every method
// is invoked from the gateway loop, so the two maps need no locking; a caller
// porting this to multi-goroutine use must add its own synchronization around
// both maps together.
type ConnectionRegistry struct {
	byIdentity map[string]map[string]*Conn
	byConnID   map[string]*Conn
}

// NewConnectionRegistry constructs an empty registry.
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		byIdentity: make(map[string]map[string]*Conn),
		byConnID:   make(map[string]*Conn),
	}
}

// Register associates the connection with an identity. A second registration
// for the same identity keeps both connections (multi-device).
func (r *ConnectionRegistry) Register(c *Conn, identity string) {
	conns, ok := r.byIdentity[identity]
	if !ok {
		conns = make(map[string]*Conn)
		r.byIdentity[identity] = conns
	}
	conns[c.ID] = c
	r.byConnID[c.ID] = c
}

// Unregister removes the connection. If it was the identity's last connection
// the identity goes offline. Removing an unknown connection is a no-op so
// out-of-order disconnects stay harmless.
func (r *ConnectionRegistry) Unregister(connID string) {
	c, ok := r.byConnID[connID]
	if !ok {
		return
	}
	delete(r.byConnID, connID)
	if conns, ok := r.byIdentity[c.identity]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.byIdentity, c.identity)
		}
	}
}

// ConnectionsFor returns the live connections owned by the identity, empty
// when the identity is unknown or offline.
func (r *ConnectionRegistry) ConnectionsFor(identity string) []*Conn {
	conns := r.byIdentity[identity]
	if len(conns) == 0 {
		return nil
	}
	out := make([]*Conn, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// IsOnline reports whether the identity owns at least one live connection.
func (r *ConnectionRegistry) IsOnline(identity string) bool {
	return len(r.byIdentity[identity]) > 0
}

// Lookup resolves a connection ID to its handle, nil if it is gone.
func (r *ConnectionRegistry) Lookup(connID string) *Conn {
	return r.byConnID[connID]
}

// Len returns the number of registered connections.
func (r *ConnectionRegistry) Len() int {
	return len(r.byConnID)
}
