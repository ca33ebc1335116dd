package chat

import (
	"context"
	"testing"

	"pairchat/internal/models"

	"github.com/stretchr/testify/require"
)

func newFriendFixture(usernames ...string) (*FriendService, *memStore, *Hub) {
	store := newMemStore(usernames...)
	hub := NewHub()
	return NewFriendService(store, hub), store, hub
}

func TestSendRequestRejectsSelf(t *testing.T) {
	friends, _, _ := newFriendFixture("alice")

	err := friends.SendRequest(context.Background(), "alice", "alice")
	require.ErrorIs(t, err, ErrSelfRequest)
}

func TestSendRequestRejectsUnknownTarget(t *testing.T) {
	friends, _, _ := newFriendFixture("alice")

	err := friends.SendRequest(context.Background(), "alice", "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSendRequestRejectsDuplicate(t *testing.T) {
	friends, _, _ := newFriendFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))
	err := friends.SendRequest(ctx, "alice", "bob")
	require.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestSendRequestRejectsExistingFriends(t *testing.T) {
	friends, _, _ := newFriendFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, friends.AcceptRequest(ctx, "bob", "alice"))

	err := friends.SendRequest(ctx, "alice", "bob")
	require.ErrorIs(t, err, ErrAlreadyFriends)
}

func TestAcceptMakesFriendshipSymmetric(t *testing.T) {
	friends, store, _ := newFriendFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, friends.AcceptRequest(ctx, "bob", "alice"))

	aliceFriends, err := friends.Friends(ctx, "alice")
	require.NoError(t, err)
	require.Contains(t, aliceFriends, "bob")

	bobFriends, err := friends.Friends(ctx, "bob")
	require.NoError(t, err)
	require.Contains(t, bobFriends, "alice")

	pending, err := store.HasPendingRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.False(t, pending, "pending edge must not survive acceptance")
}

func TestCrossedRequestsConflict(t *testing.T) {
	friends, _, _ := newFriendFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))
	err := friends.SendRequest(ctx, "bob", "alice")
	require.ErrorIs(t, err, ErrDuplicateRequest)
}

func TestAcceptConsumesCrossedRequest(t *testing.T) {
	friends, store, _ := newFriendFixture("alice", "bob")
	ctx := context.Background()

	// Both directions went pending before either side saw the other, as
	// happens when requests race on separate connections.
	require.NoError(t, store.AddPendingRequest(ctx, "alice", "bob"))
	require.NoError(t, store.AddPendingRequest(ctx, "bob", "alice"))

	require.NoError(t, friends.AcceptRequest(ctx, "bob", "alice"))

	ok, err := store.AreFriends(ctx, "alice", "bob")
	require.NoError(t, err)
	require.True(t, ok)

	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		pending, err := store.HasPendingRequest(ctx, pair[0], pair[1])
		require.NoError(t, err)
		require.False(t, pending, "no pending edge may survive acceptance")
	}

	// The stale reverse request was consumed and cannot be accepted again.
	err = friends.AcceptRequest(ctx, "alice", "bob")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptWithoutPendingRequest(t *testing.T) {
	friends, _, _ := newFriendFixture("alice", "bob")

	err := friends.AcceptRequest(context.Background(), "bob", "alice")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRejectClearsPendingEdge(t *testing.T) {
	friends, store, _ := newFriendFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, friends.RejectRequest(ctx, "bob", "alice"))

	pending, err := store.HasPendingRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	require.False(t, pending)

	// The pair is back to NONE: a fresh request is allowed.
	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))
}

func TestRejectWithoutPendingRequest(t *testing.T) {
	friends, _, _ := newFriendFixture("alice", "bob")

	err := friends.RejectRequest(context.Background(), "bob", "alice")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSendRequestNotifiesOnlineTarget(t *testing.T) {
	friends, _, hub := newFriendFixture("alice", "bob")
	bob := NewSession()
	hub.Register("bob", bob)
	drain(bob)

	require.NoError(t, friends.SendRequest(context.Background(), "alice", "bob"))

	ev := recvEvent(t, bob)
	require.Equal(t, models.EventFriendRequestReceived, ev.Type)
	require.Equal(t, "alice", ev.From)
}

func TestAcceptNotifiesRequester(t *testing.T) {
	friends, _, hub := newFriendFixture("alice", "bob")
	ctx := context.Background()
	alice := NewSession()
	hub.Register("alice", alice)
	drain(alice)

	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, friends.AcceptRequest(ctx, "bob", "alice"))

	ev := recvEvent(t, alice)
	require.Equal(t, models.EventFriendRequestAccepted, ev.Type)
	require.Equal(t, "bob", ev.From)
}

func TestOfflineTargetDiscoversRequestLater(t *testing.T) {
	friends, _, _ := newFriendFixture("alice", "bob")
	ctx := context.Background()

	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))

	pending, err := friends.PendingRequests(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, []string{"alice"}, pending)
}

func TestOnlineFriends(t *testing.T) {
	friends, _, hub := newFriendFixture("alice", "bob", "carol")
	ctx := context.Background()

	require.NoError(t, friends.SendRequest(ctx, "alice", "bob"))
	require.NoError(t, friends.AcceptRequest(ctx, "bob", "alice"))
	require.NoError(t, friends.SendRequest(ctx, "alice", "carol"))
	require.NoError(t, friends.AcceptRequest(ctx, "carol", "alice"))

	hub.Register("bob", NewSession())

	online, err := friends.OnlineFriends(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, online)
}
