package engine

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTypingTTL is how long a typing indicator stays alive without a
	// refresh before an implicit stop fires.
	DefaultTypingTTL = 3 * time.Second
	// DefaultEventBuffer sizes each connection's channels.
	DefaultEventBuffer = 16
	// DefaultHistoryLimit caps the messages replayed on room join.
	DefaultHistoryLimit = 50
)

// Options tunes gateway behavior.
type Options struct {
	// TypingTTL is the typing-indicator expiry window.
	TypingTTL time.Duration
	// EventBuffer sizes each connection's command and event channels.
	EventBuffer int
	// HistoryLimit caps the number of messages replayed on room join;
	// zero disables history replay.
	HistoryLimit int
	// OfflineNotifications stores a durable notification row for room
	// participants with no live connection at message time.
	OfflineNotifications bool
}

func (o Options) withDefaults() Options {
	if o.TypingTTL <= 0 {
		o.TypingTTL = DefaultTypingTTL
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = DefaultEventBuffer
	}
	return o
}

// loopMsg is one unit of work for the gateway loop.
type loopMsg struct {
	conn   *Conn
	cmd    *Command
	attach bool
	detach bool
	expiry *typingExpiry
}

type typingExpiry struct {
	room     string
	identity string
	gen      uint64
}

// Gateway is the engine entry point. It owns one ConnectionRegistry,
// RoomMembership, FanoutRouter and TypingIndicatorTracker per instance and
// mutates them exclusively on the Run goroutine, so multiple isolated
// gateways can coexist (one per test, for example).
type Gateway struct {
	opts       Options
	registry   *ConnectionRegistry
	membership *RoomMembership
	fanout     *FanoutRouter
	typing     *TypingIndicatorTracker
	persist    Persistence
	log        *zerolog.Logger

	inbox chan loopMsg
}

// NewGateway constructs a gateway. persist may be nil for an in-memory relay.
func NewGateway(opts Options, persist Persistence, logger *zerolog.Logger) *Gateway {
	opts = opts.withDefaults()
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	registry := NewConnectionRegistry()
	membership := NewRoomMembership()
	g := &Gateway{
		opts:       opts,
		registry:   registry,
		membership: membership,
		fanout:     NewFanoutRouter(registry, membership),
		persist:    persist,
		log:        logger,
		inbox:      make(chan loopMsg, 256),
	}
	g.typing = NewTypingIndicatorTracker(opts.TypingTTL, g.queueExpiry)
	return g
}

// NewConn creates a connection handle sized per gateway options.
func (g *Gateway) NewConn() *Conn {
	return NewConn(g.opts.EventBuffer)
}

// Attach registers the connection with the loop and starts the pump that
// drains its command channel. When the transport closes the connection via
// Conn.Close, the pump forwards a disconnect after the remaining queued
// commands, preserving per-connection ordering.
func (g *Gateway) Attach(c *Conn) {
	g.inbox <- loopMsg{conn: c, attach: true}
	go func() {
		for cmd := range c.Commands {
			g.inbox <- loopMsg{conn: c, cmd: cmd}
		}
		g.inbox <- loopMsg{conn: c, detach: true}
	}()
}

func (g *Gateway) queueExpiry(roomID, identity string, gen uint64) {
	select {
	case g.inbox <- loopMsg{expiry: &typingExpiry{room: roomID, identity: identity, gen: gen}}:
	default:
		g.log.Warn().Str("room", roomID).Str("identity", identity).Msg("typing expiry dropped, inbox full")
	}
}

// Run processes loop messages until ctx is cancelled. All engine state is
// mutated only here; command handlers run to completion before the next
// message is taken, which is what keeps the indices consistent without locks.
func (g *Gateway) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-g.inbox:
			g.dispatch(ctx, msg)
		}
	}
}

func (g *Gateway) dispatch(ctx context.Context, msg loopMsg) {
	switch {
	case msg.expiry != nil:
		g.handleTypingExpiry(msg.expiry)
	case msg.attach:
		g.log.Debug().Str("conn_id", msg.conn.ID).Msg("connection attached")
	case msg.detach:
		g.handleDisconnect(msg.conn)
	case msg.cmd != nil:
		g.handleCommand(ctx, msg.conn, msg.cmd)
	}
}

// CanonicalID normalizes an external identifier before it is used as any map
// key. Room and user IDs reach the engine from several sources (tokens, URL
// parts, JSON payloads) and must collapse to a single representation.
func CanonicalID(raw string) string {
	return strings.TrimSpace(raw)
}

func (g *Gateway) handleCommand(ctx context.Context, c *Conn, cmd *Command) {
	if c.state == StateDisconnected {
		// Terminal state; the events channel is already closed, so the
		// rejection can only be logged.
		g.log.Warn().Str("conn_id", c.ID).Str("code", ErrCodeConnectionClosed).Msg("command on closed connection dropped")
		return
	}

	switch cmd.Kind {
	case CommandIdentify:
		g.handleIdentify(c, cmd)
	case CommandJoinRoom:
		g.handleJoin(ctx, c, cmd)
	case CommandLeaveRoom:
		g.handleLeave(c, cmd)
	case CommandSendMessage:
		g.handleSendMessage(ctx, c, cmd)
	case CommandTypingStart:
		g.handleTypingStart(c, cmd)
	case CommandTypingStop:
		g.handleTypingStop(c, cmd)
	default:
		g.sendError(c, engineError(ErrCodeBadRequest, "unknown command"))
	}
}

func (g *Gateway) handleIdentify(c *Conn, cmd *Command) {
	if c.state == StateIdentified {
		g.sendError(c, engineError(ErrCodeAlreadyIdentified, "connection already identified"))
		return
	}
	identity := CanonicalID(cmd.Identity)
	if identity == "" {
		g.sendError(c, engineError(ErrCodeBadRequest, "identity is required"))
		return
	}

	c.identity = identity
	c.state = StateIdentified
	g.registry.Register(c, identity)
	deliver(c, &Event{Kind: EventConnected, User: identity, At: time.Now()})
	g.log.Debug().Str("conn_id", c.ID).Str("identity", identity).Msg("connection identified")
}

func (g *Gateway) handleJoin(ctx context.Context, c *Conn, cmd *Command) {
	if !g.requireIdentified(c) {
		return
	}
	roomID := CanonicalID(cmd.Room)
	if roomID == "" {
		g.sendError(c, engineError(ErrCodeBadRequest, "room is required"))
		return
	}

	if g.persist != nil {
		ok, err := g.persist.AuthorizeRoomJoin(ctx, c.identity, roomID)
		if err != nil {
			g.log.Error().Err(err).Str("room", roomID).Str("identity", c.identity).Msg("authorize room join")
			g.sendError(c, engineError(ErrCodePersistence, "authorization check failed"))
			return
		}
		if !ok {
			g.sendError(c, engineError(ErrCodeUnauthorizedJoin, "not a participant of this room"))
			return
		}
	}

	if !g.membership.Join(roomID, c.ID) {
		// Already joined from this connection.
		return
	}
	g.fanout.BroadcastToRoom(roomID, &Event{Kind: EventUserJoined, Room: roomID, User: c.identity, At: time.Now()}, "")
	g.sendHistory(ctx, c, roomID)
	g.log.Debug().Str("conn_id", c.ID).Str("room", roomID).Msg("joined room")
}

func (g *Gateway) sendHistory(ctx context.Context, c *Conn, roomID string) {
	if g.persist == nil || g.opts.HistoryLimit <= 0 {
		return
	}
	msgs, err := g.persist.RecentMessages(ctx, roomID, g.opts.HistoryLimit)
	if err != nil {
		// History is best-effort; the join already succeeded.
		g.log.Warn().Err(err).Str("room", roomID).Msg("load room history")
		return
	}
	if len(msgs) == 0 {
		return
	}
	deliver(c, &Event{Kind: EventHistory, Room: roomID, Messages: msgs, At: time.Now()})
}

func (g *Gateway) handleLeave(c *Conn, cmd *Command) {
	if !g.requireIdentified(c) {
		return
	}
	roomID := CanonicalID(cmd.Room)
	if roomID == "" {
		g.sendError(c, engineError(ErrCodeBadRequest, "room is required"))
		return
	}
	if !g.membership.Leave(roomID, c.ID) {
		// Leaving a room never joined is a no-op.
		return
	}
	g.stopTypingIfAbsent(roomID, c.identity)
	g.fanout.BroadcastToRoom(roomID, &Event{Kind: EventUserLeft, Room: roomID, User: c.identity, At: time.Now()}, "")
}

func (g *Gateway) handleSendMessage(ctx context.Context, c *Conn, cmd *Command) {
	if !g.requireIdentified(c) {
		return
	}
	roomID := CanonicalID(cmd.Room)
	if roomID == "" || strings.TrimSpace(cmd.Text) == "" {
		g.sendError(c, engineError(ErrCodeBadRequest, "room and text are required"))
		return
	}
	if !g.membership.IsMember(roomID, c.ID) {
		g.sendError(c, engineError(ErrCodeNotAMember, "join the room before sending"))
		return
	}

	msg := &Message{Room: roomID, From: c.identity, Text: cmd.Text, CreatedAt: time.Now()}
	if g.persist != nil {
		stored, err := g.persist.PersistMessage(ctx, roomID, c.identity, cmd.Text)
		if err != nil {
			// An unsaved message is never fanned out.
			g.log.Error().Err(err).Str("room", roomID).Str("identity", c.identity).Msg("persist message")
			g.sendError(c, engineError(ErrCodePersistence, "message was not saved"))
			return
		}
		msg = stored
	}

	// A send implicitly ends the sender's typing indicator.
	if _, stopped := g.typing.Stop(roomID, c.identity); stopped {
		g.fanout.BroadcastToRoom(roomID, &Event{Kind: EventStopTyping, Room: roomID, User: c.identity, At: time.Now()}, c.ID)
	}

	g.fanout.BroadcastToRoom(roomID, &Event{Kind: EventRoomMessage, Room: roomID, User: msg.From, Message: msg, At: msg.CreatedAt}, c.ID)
	g.notifyParticipants(ctx, roomID, c.identity)
}

func (g *Gateway) notifyParticipants(ctx context.Context, roomID, senderID string) {
	if g.persist == nil {
		return
	}
	participants, err := g.persist.RoomParticipants(ctx, roomID)
	if err != nil {
		g.log.Warn().Err(err).Str("room", roomID).Msg("list participants for notification")
		return
	}
	ev := &Event{
		Kind:         EventNotification,
		Room:         roomID,
		User:         senderID,
		Notification: &Notification{Kind: "message", From: senderID, Room: roomID},
		At:           time.Now(),
	}
	for _, p := range participants {
		p = CanonicalID(p)
		if p == "" || p == senderID {
			continue
		}
		delivered := g.fanout.UnicastToIdentity(p, ev)
		if delivered == 0 && g.opts.OfflineNotifications {
			if err := g.persist.CreateNotification(ctx, p, senderID, "message"); err != nil {
				g.log.Warn().Err(err).Str("recipient", p).Msg("store offline notification")
			}
		}
	}
}

func (g *Gateway) handleTypingStart(c *Conn, cmd *Command) {
	if !g.requireIdentified(c) {
		return
	}
	roomID := CanonicalID(cmd.Room)
	if roomID == "" {
		g.sendError(c, engineError(ErrCodeBadRequest, "room is required"))
		return
	}
	if !g.membership.IsMember(roomID, c.ID) {
		g.sendError(c, engineError(ErrCodeNotAMember, "join the room before typing"))
		return
	}
	g.typing.Start(roomID, c.identity, c.ID)
	g.fanout.BroadcastToRoom(roomID, &Event{Kind: EventTyping, Room: roomID, User: c.identity, At: time.Now()}, c.ID)
}

func (g *Gateway) handleTypingStop(c *Conn, cmd *Command) {
	if !g.requireIdentified(c) {
		return
	}
	roomID := CanonicalID(cmd.Room)
	if roomID == "" {
		g.sendError(c, engineError(ErrCodeBadRequest, "room is required"))
		return
	}
	if _, stopped := g.typing.Stop(roomID, c.identity); stopped {
		g.fanout.BroadcastToRoom(roomID, &Event{Kind: EventStopTyping, Room: roomID, User: c.identity, At: time.Now()}, c.ID)
	}
}

func (g *Gateway) handleTypingExpiry(exp *typingExpiry) {
	connID, stopped := g.typing.Expire(exp.room, exp.identity, exp.gen)
	if !stopped {
		return
	}
	g.fanout.BroadcastToRoom(exp.room, &Event{Kind: EventStopTyping, Room: exp.room, User: exp.identity, At: time.Now()}, connID)
}

func (g *Gateway) handleDisconnect(c *Conn) {
	if c.state == StateDisconnected {
		return
	}
	identified := c.state == StateIdentified

	rooms := g.membership.LeaveAll(c.ID)
	for _, roomID := range rooms {
		if identified {
			g.stopTypingIfAbsent(roomID, c.identity)
			g.fanout.BroadcastToRoom(roomID, &Event{Kind: EventUserLeft, Room: roomID, User: c.identity, At: time.Now()}, "")
		}
	}
	g.registry.Unregister(c.ID)
	c.state = StateDisconnected
	close(c.Events)
	g.log.Debug().Str("conn_id", c.ID).Msg("connection disconnected")
}

// stopTypingIfAbsent force-stops the identity's typing indicator in the room
// when none of its connections is a member anymore, cancelling the pending
// timer so nothing fires after disconnect.
func (g *Gateway) stopTypingIfAbsent(roomID, identity string) {
	if g.identityInRoom(roomID, identity) {
		return
	}
	if _, stopped := g.typing.Stop(roomID, identity); stopped {
		g.fanout.BroadcastToRoom(roomID, &Event{Kind: EventStopTyping, Room: roomID, User: identity, At: time.Now()}, "")
	}
}

func (g *Gateway) identityInRoom(roomID, identity string) bool {
	for connID := range g.membership.MembersOf(roomID) {
		if c := g.registry.Lookup(connID); c != nil && c.identity == identity {
			return true
		}
	}
	return false
}

func (g *Gateway) requireIdentified(c *Conn) bool {
	if c.state != StateIdentified {
		g.sendError(c, engineError(ErrCodeNotIdentified, "identify first"))
		return false
	}
	return true
}

func (g *Gateway) sendError(c *Conn, ee *EngineError) {
	g.log.Debug().Str("conn_id", c.ID).Str("code", ee.Code).Msg(ee.Message)
	deliver(c, &Event{Kind: EventError, Error: ee, At: time.Now()})
}
