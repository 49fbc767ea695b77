package sqlite

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roomcast/roomcast-server/internal/store"
)

func TestEngineAdapterAuthorize(t *testing.T) {
	s := newTestStore(t)
	adapter := store.NewEngineAdapter(s)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	lobby, err := s.CreateRoom(ctx, "lobby", store.RoomTypePublic, nil)
	require.NoError(t, err)
	private, err := s.CreateRoom(ctx, "team", store.RoomTypePrivate, &alice.ID)
	require.NoError(t, err)

	aliceID := strconv.FormatInt(alice.ID, 10)
	bobID := strconv.FormatInt(bob.ID, 10)
	lobbyID := strconv.FormatInt(lobby.ID, 10)
	privateID := strconv.FormatInt(private.ID, 10)

	// Public rooms admit anyone and enroll them as participants.
	ok, err := adapter.AuthorizeRoomJoin(ctx, bobID, lobbyID)
	require.NoError(t, err)
	require.True(t, ok)

	participants, err := adapter.RoomParticipants(ctx, lobbyID)
	require.NoError(t, err)
	require.Contains(t, participants, bobID)

	// Private rooms admit the owner and members only.
	ok, err = adapter.AuthorizeRoomJoin(ctx, aliceID, privateID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = adapter.AuthorizeRoomJoin(ctx, bobID, privateID)
	require.NoError(t, err)
	require.False(t, ok)

	// Unknown or malformed identifiers are denials, not failures.
	ok, err = adapter.AuthorizeRoomJoin(ctx, bobID, "99999")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = adapter.AuthorizeRoomJoin(ctx, bobID, "not-a-room")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEngineAdapterMessages(t *testing.T) {
	s := newTestStore(t)
	adapter := store.NewEngineAdapter(s)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	lobby, err := s.CreateRoom(ctx, "lobby", store.RoomTypePublic, nil)
	require.NoError(t, err)

	aliceID := strconv.FormatInt(alice.ID, 10)
	lobbyID := strconv.FormatInt(lobby.ID, 10)

	saved, err := adapter.PersistMessage(ctx, lobbyID, aliceID, "first")
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)
	require.Equal(t, lobbyID, saved.Room)
	require.Equal(t, aliceID, saved.From)

	_, err = adapter.PersistMessage(ctx, lobbyID, aliceID, "second")
	require.NoError(t, err)

	recent, err := adapter.RecentMessages(ctx, lobbyID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "first", recent[0].Text)
	require.Equal(t, "second", recent[1].Text)
}

func TestEngineAdapterNotifications(t *testing.T) {
	s := newTestStore(t)
	adapter := store.NewEngineAdapter(s)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	aliceID := strconv.FormatInt(alice.ID, 10)
	bobID := strconv.FormatInt(bob.ID, 10)

	require.NoError(t, adapter.CreateNotification(ctx, bobID, aliceID, "message"))

	rows, err := s.ListNotifications(ctx, bob.ID, true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "message", rows[0].Kind)
	require.Equal(t, alice.ID, rows[0].SenderID)
}
