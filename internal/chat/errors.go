package chat

import "errors"

// Error taxonomy for inbound events. Every error stays local to the
// triggering session; nothing is ever fanned out to a room.
var (
	ErrValidation       = errors.New("invalid event payload")
	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrDuplicateRequest = errors.New("friend request already pending")
	ErrNotFound         = errors.New("not found")
)
