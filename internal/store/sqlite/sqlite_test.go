package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roomcast/roomcast-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.False(t, created.IsGuest)

	byName, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)

	_, err = s.GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	guest, err := s.CreateGuestUser(ctx, "session-abc-123")
	require.NoError(t, err)
	require.True(t, guest.IsGuest)
	require.Equal(t, "guest_session-", guest.Username)

	bySession, err := s.GetUserBySessionID(ctx, "session-abc-123")
	require.NoError(t, err)
	require.Equal(t, guest.ID, bySession.ID)

	// Guests never resolve through the username lookup.
	_, err = s.GetUserByUsername(ctx, guest.Username)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestRoomMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	other, err := s.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	room, err := s.CreateRoom(ctx, "team", store.RoomTypePrivate, &owner.ID)
	require.NoError(t, err)
	require.Equal(t, store.RoomTypePrivate, room.Type)

	// Creating a private room enrolls the owner.
	isMember, err := s.IsMember(ctx, owner.ID, room.ID)
	require.NoError(t, err)
	require.True(t, isMember)

	require.NoError(t, s.AddMember(ctx, other.ID, room.ID))
	require.NoError(t, s.AddMember(ctx, other.ID, room.ID)) // duplicate is a no-op

	members, err := s.ListMembers(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	require.NoError(t, s.RemoveMember(ctx, other.ID, room.ID))
	isMember, err = s.IsMember(ctx, other.ID, room.ID)
	require.NoError(t, err)
	require.False(t, isMember)
}

func TestListRoomsVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	_, err = s.CreateRoom(ctx, "lobby", store.RoomTypePublic, nil)
	require.NoError(t, err)
	_, err = s.CreateRoom(ctx, "alice-private", store.RoomTypePrivate, &alice.ID)
	require.NoError(t, err)

	bobRooms, err := s.ListRooms(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobRooms, 1)
	require.Equal(t, "lobby", bobRooms[0].Name)

	aliceRooms, err := s.ListRooms(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, aliceRooms, 2)
}

func TestMessagePagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	room, err := s.CreateRoom(ctx, "lobby", store.RoomTypePublic, nil)
	require.NoError(t, err)

	for _, body := range []string{"one", "two", "three", "four", "five"} {
		msg := &store.Message{RoomID: room.ID, UserID: user.ID, Body: body}
		require.NoError(t, s.SaveMessage(ctx, msg))
		require.NotZero(t, msg.ID)
		require.False(t, msg.CreatedAt.IsZero())
	}

	// Latest page, chronological order.
	page, err := s.ListMessages(ctx, room.ID, 3, nil)
	require.NoError(t, err)
	require.Len(t, page, 3)
	require.Equal(t, "three", page[0].Body)
	require.Equal(t, "five", page[2].Body)

	// Page before the oldest message of the previous page.
	older, err := s.ListMessages(ctx, room.ID, 3, &page[0].ID)
	require.NoError(t, err)
	require.Len(t, older, 2)
	require.Equal(t, "one", older[0].Body)
	require.Equal(t, "two", older[1].Body)
}

func TestNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	n, err := s.CreateNotification(ctx, bob.ID, alice.ID, "message")
	require.NoError(t, err)
	require.False(t, n.Read)

	_, err = s.CreateNotification(ctx, bob.ID, alice.ID, "message")
	require.NoError(t, err)

	unread, err := s.ListNotifications(ctx, bob.ID, true)
	require.NoError(t, err)
	require.Len(t, unread, 2)

	require.NoError(t, s.MarkNotificationsRead(ctx, bob.ID))

	unread, err = s.ListNotifications(ctx, bob.ID, true)
	require.NoError(t, err)
	require.Empty(t, unread)

	all, err := s.ListNotifications(ctx, bob.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.True(t, all[0].Read)
}
