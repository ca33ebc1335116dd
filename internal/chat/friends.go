package chat

import (
	"context"
	"errors"
	"fmt"

	"pairchat/internal/database"
	"pairchat/internal/models"
)

// FriendService reconciles the persisted friend graph with live delivery:
// state transitions go through the store, notifications through own rooms.
// Transitions per ordered (requester, target) pair: NONE -> PENDING ->
// {FRIENDS, NONE}. A pending edge and a friendship never coexist.
type FriendService struct {
	store database.Store
	hub   *Hub
}

func NewFriendService(store database.Store, hub *Hub) *FriendService {
	return &FriendService{store: store, hub: hub}
}

// SendRequest records a pending request from -> to and notifies the target's
// own room. An offline target finds the request later via PendingRequests.
func (f *FriendService) SendRequest(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: friend request needs both identities", ErrValidation)
	}
	if from == to {
		return ErrSelfRequest
	}

	if _, err := f.store.GetUserByUsername(ctx, to); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("user %q: %w", to, ErrNotFound)
		}
		return fmt.Errorf("looking up %q: %w", to, err)
	}

	friends, err := f.store.AreFriends(ctx, from, to)
	if err != nil {
		return fmt.Errorf("checking friendship: %w", err)
	}
	if friends {
		return ErrAlreadyFriends
	}

	// A pending edge in either direction blocks a new request, so crossed
	// requests cannot put the pair into PENDING twice.
	for _, pair := range [][2]string{{from, to}, {to, from}} {
		pending, err := f.store.HasPendingRequest(ctx, pair[0], pair[1])
		if err != nil {
			return fmt.Errorf("checking pending requests: %w", err)
		}
		if pending {
			return ErrDuplicateRequest
		}
	}

	if err := f.store.AddPendingRequest(ctx, from, to); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return ErrDuplicateRequest
		}
		return fmt.Errorf("saving friend request: %w", err)
	}

	f.hub.Broadcast(OwnRoomKey(to), &models.ServerEvent{
		Type: models.EventFriendRequestReceived,
		From: from,
		To:   to,
	})
	return nil
}

// AcceptRequest confirms the pending request from -> to. The friendship is
// inserted symmetrically and the requester's own room is notified.
func (f *FriendService) AcceptRequest(ctx context.Context, to, from string) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: accepting needs both identities", ErrValidation)
	}

	if err := f.store.AcceptPendingRequest(ctx, to, from); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("no pending request from %q: %w", from, ErrNotFound)
		}
		return fmt.Errorf("accepting friend request: %w", err)
	}

	f.hub.Broadcast(OwnRoomKey(from), &models.ServerEvent{
		Type: models.EventFriendRequestAccepted,
		From: to,
		To:   from,
	})
	return nil
}

// RejectRequest discards the pending request from -> to. The persisted edge
// is cleared, returning the pair to NONE; the requester is not notified.
func (f *FriendService) RejectRequest(ctx context.Context, to, from string) error {
	if from == "" || to == "" {
		return fmt.Errorf("%w: rejecting needs both identities", ErrValidation)
	}

	if err := f.store.RemovePendingRequest(ctx, from, to); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("no pending request from %q: %w", from, ErrNotFound)
		}
		return fmt.Errorf("rejecting friend request: %w", err)
	}
	return nil
}

func (f *FriendService) Friends(ctx context.Context, username string) ([]string, error) {
	return f.store.Friends(ctx, username)
}

func (f *FriendService) PendingRequests(ctx context.Context, username string) ([]string, error) {
	return f.store.PendingRequests(ctx, username)
}

// OnlineFriends is the intersection of the user's friend list with the
// hub's presence snapshot.
func (f *FriendService) OnlineFriends(ctx context.Context, username string) ([]string, error) {
	friends, err := f.store.Friends(ctx, username)
	if err != nil {
		return nil, err
	}

	online := make([]string, 0, len(friends))
	for _, friend := range friends {
		if f.hub.IsOnline(friend) {
			online = append(online, friend)
		}
	}
	return online, nil
}
