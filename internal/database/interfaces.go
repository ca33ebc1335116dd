package database

import (
	"context"
	"errors"
	"time"

	"pairchat/internal/models"
)

var (
	// ErrNotFound is returned by lookups and deletes that match no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("already exists")
)

type UserRepository interface {
	CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsernames(ctx context.Context) ([]string, error)
	SetOTP(ctx context.Context, username, otp string, expiry time.Time) error
	VerifyOTP(ctx context.Context, username, otp string) (bool, error)
}

type MessageRepository interface {
	SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	LoadConversation(ctx context.Context, a, b string, limit int) ([]*models.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	DeleteConversation(ctx context.Context, a, b string) error
}

type FriendRepository interface {
	Friends(ctx context.Context, username string) ([]string, error)
	PendingRequests(ctx context.Context, username string) ([]string, error)
	AreFriends(ctx context.Context, a, b string) (bool, error)
	HasPendingRequest(ctx context.Context, from, to string) (bool, error)
	AddPendingRequest(ctx context.Context, from, to string) error
	AcceptPendingRequest(ctx context.Context, to, from string) error
	RemovePendingRequest(ctx context.Context, from, to string) error
}

type Store interface {
	UserRepository
	MessageRepository
	FriendRepository
	Close() error
}
