package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/roomcast/roomcast-server/internal/engine"
)

// EngineAdapter exposes a Store to the fan-out engine. The engine works
// with canonical string identifiers; the store keys everything by int64,
// so the adapter converts at the boundary. Malformed identifiers are
// treated as references to records that do not exist, not as outages.
type EngineAdapter struct {
	store Store
}

// NewEngineAdapter wraps a store for use as engine persistence.
func NewEngineAdapter(s Store) *EngineAdapter {
	return &EngineAdapter{store: s}
}

// PersistMessage saves a room message and returns its engine view.
func (a *EngineAdapter) PersistMessage(ctx context.Context, roomID, senderID, text string) (*engine.Message, error) {
	rid, err := parseID(roomID)
	if err != nil {
		return nil, err
	}
	uid, err := parseID(senderID)
	if err != nil {
		return nil, err
	}

	msg := &Message{RoomID: rid, UserID: uid, Body: text}
	if err := a.store.SaveMessage(ctx, msg); err != nil {
		return nil, err
	}

	return toEngineMessage(msg), nil
}

// AuthorizeRoomJoin reports whether identity may join roomID. Joining a
// public room enrolls the user as a member so later participant lookups
// include them.
func (a *EngineAdapter) AuthorizeRoomJoin(ctx context.Context, identity, roomID string) (bool, error) {
	rid, err := parseID(roomID)
	if err != nil {
		return false, nil
	}
	uid, err := parseID(identity)
	if err != nil {
		return false, nil
	}

	room, err := a.store.GetRoomByID(ctx, rid)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if room.Type == RoomTypePublic {
		if err := a.store.AddMember(ctx, uid, rid); err != nil {
			return false, err
		}
		return true, nil
	}

	if room.OwnerID != nil && *room.OwnerID == uid {
		return true, nil
	}
	return a.store.IsMember(ctx, uid, rid)
}

// RoomParticipants returns the identities enrolled in a room.
func (a *EngineAdapter) RoomParticipants(ctx context.Context, roomID string) ([]string, error) {
	rid, err := parseID(roomID)
	if err != nil {
		return nil, nil
	}

	members, err := a.store.ListMembers(ctx, rid)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, strconv.FormatInt(m, 10))
	}
	return ids, nil
}

// RecentMessages returns up to limit messages from a room, oldest first.
func (a *EngineAdapter) RecentMessages(ctx context.Context, roomID string, limit int) ([]*engine.Message, error) {
	rid, err := parseID(roomID)
	if err != nil {
		return nil, nil
	}

	messages, err := a.store.ListMessages(ctx, rid, limit, nil)
	if err != nil {
		return nil, err
	}

	out := make([]*engine.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, toEngineMessage(m))
	}
	return out, nil
}

// CreateNotification stores a durable notification for an offline user.
func (a *EngineAdapter) CreateNotification(ctx context.Context, recipientID, senderID, kind string) error {
	rid, err := parseID(recipientID)
	if err != nil {
		return nil
	}
	sid, err := parseID(senderID)
	if err != nil {
		return nil
	}

	_, err = a.store.CreateNotification(ctx, rid, sid, kind)
	return err
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func toEngineMessage(m *Message) *engine.Message {
	return &engine.Message{
		ID:        strconv.FormatInt(m.ID, 10),
		Room:      strconv.FormatInt(m.RoomID, 10),
		From:      strconv.FormatInt(m.UserID, 10),
		Text:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

var _ engine.Persistence = (*EngineAdapter)(nil)
