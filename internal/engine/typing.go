package engine

import "time"

type typingKey struct {
	room     string
	identity string
}

type typingState struct {
	startedAt time.Time
	gen       uint64
	timer     *time.Timer
	connID    string
}

// TypingIndicatorTracker holds per-room, per-identity ephemeral typing state
// with automatic expiry. At most one state exists per (room, identity); a new
// Start replaces the old one and cancels its timer before scheduling the
// next, so no stale timer survives a refresh. Start/Stop/Expire run on the
// gateway loop; fired timers report back through the expire callback, which
// must reschedule the expiry onto that same loop.
type TypingIndicatorTracker struct {
	ttl    time.Duration
	states map[typingKey]*typingState
	gen    uint64
	expire func(roomID, identity string, gen uint64)
}

// NewTypingIndicatorTracker constructs a tracker with the given expiry window.
func NewTypingIndicatorTracker(ttl time.Duration, expire func(roomID, identity string, gen uint64)) *TypingIndicatorTracker {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	return &TypingIndicatorTracker{
		ttl:    ttl,
		states: make(map[typingKey]*typingState),
		expire: expire,
	}
}

// Start inserts or refreshes the typing state for (room, identity). connID is
// the originating connection, remembered so expiry broadcasts can exclude it.
func (t *TypingIndicatorTracker) Start(roomID, identity, connID string) {
	key := typingKey{room: roomID, identity: identity}
	if st, ok := t.states[key]; ok {
		st.timer.Stop()
	}
	t.gen++
	gen := t.gen
	st := &typingState{
		startedAt: time.Now(),
		gen:       gen,
		connID:    connID,
	}
	st.timer = time.AfterFunc(t.ttl, func() {
		t.expire(roomID, identity, gen)
	})
	t.states[key] = st
}

// Stop removes the typing state and cancels its pending timer. Removing
// absent state is a no-op; the boolean lets the caller emit the stop
// broadcast exactly once.
func (t *TypingIndicatorTracker) Stop(roomID, identity string) (connID string, stopped bool) {
	key := typingKey{room: roomID, identity: identity}
	st, ok := t.states[key]
	if !ok {
		return "", false
	}
	st.timer.Stop()
	delete(t.states, key)
	return st.connID, true
}

// Expire handles a fired timer. The generation guard discards timers that
// were superseded by a later Start whose callback still managed to fire.
func (t *TypingIndicatorTracker) Expire(roomID, identity string, gen uint64) (connID string, stopped bool) {
	key := typingKey{room: roomID, identity: identity}
	st, ok := t.states[key]
	if !ok || st.gen != gen {
		return "", false
	}
	delete(t.states, key)
	return st.connID, true
}

// ActiveIn reports whether the identity has a live indicator in the room.
func (t *TypingIndicatorTracker) ActiveIn(roomID, identity string) bool {
	_, ok := t.states[typingKey{room: roomID, identity: identity}]
	return ok
}

// Len returns the number of active indicators.
func (t *TypingIndicatorTracker) Len() int {
	return len(t.states)
}
