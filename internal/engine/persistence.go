package engine

import "context"

// Persistence is the durable-store collaborator the gateway drives. The
// engine never persists anything itself; it hands messages to this interface
// before any fan-out and consults it for room authorization. A nil
// Persistence turns the gateway into a pure in-memory relay, which the tests
// rely on.
type Persistence interface {
	// PersistMessage durably stores a message and returns the stored form
	// with ID and timestamp filled in.
	PersistMessage(ctx context.Context, roomID, senderID, text string) (*Message, error)

	// AuthorizeRoomJoin reports whether the identity may join the room. An
	// error means the check itself failed, not that the join was denied.
	AuthorizeRoomJoin(ctx context.Context, identity, roomID string) (bool, error)

	// RoomParticipants lists the identities registered to the room, online
	// or not.
	RoomParticipants(ctx context.Context, roomID string) ([]string, error)

	// RecentMessages returns up to limit most recent room messages, oldest
	// first.
	RecentMessages(ctx context.Context, roomID string, limit int) ([]*Message, error)

	// CreateNotification stores a durable notification for a recipient that
	// had no live connection at delivery time.
	CreateNotification(ctx context.Context, recipientID, senderID, kind string) error
}
