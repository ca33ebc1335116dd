package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pairchat/internal/database"
	"pairchat/internal/models"
)

// memStore is an in-memory database.Store for exercising the core without
// Postgres.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	messages []*models.Message
	nextID   int64
	friends  map[string]map[string]bool
	pending  map[string]map[string]bool // from -> to
	failSave bool
}

func newMemStore(usernames ...string) *memStore {
	s := &memStore{
		users:   make(map[string]*models.User),
		friends: make(map[string]map[string]bool),
		pending: make(map[string]map[string]bool),
		nextID:  1,
	}
	for i, name := range usernames {
		s.users[name] = &models.User{ID: i + 1, Username: name}
	}
	return s
}

func (s *memStore) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[req.Username]; ok {
		return nil, fmt.Errorf("username %q: %w", req.Username, database.ErrDuplicate)
	}
	user := &models.User{ID: len(s.users) + 1, Username: req.Username, Email: req.Email}
	s.users[req.Username] = user
	return user, nil
}

func (s *memStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, database.ErrNotFound)
	}
	return user, nil
}

func (s *memStore) ListUsernames(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.users {
		names = append(names, name)
	}
	return names, nil
}

func (s *memStore) SetOTP(ctx context.Context, username, otp string, expiry time.Time) error {
	return nil
}

func (s *memStore) VerifyOTP(ctx context.Context, username, otp string) (bool, error) {
	return false, nil
}

func (s *memStore) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return nil, errors.New("store unavailable")
	}
	stored := *msg
	stored.ID = s.nextID
	stored.SentAt = time.Now()
	s.nextID++
	s.messages = append(s.messages, &stored)
	return &stored, nil
}

func (s *memStore) LoadConversation(ctx context.Context, a, b string, limit int) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Message
	for _, msg := range s.messages {
		if (msg.From == a && msg.To == b) || (msg.From == b && msg.To == a) {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *memStore) DeleteMessage(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, msg := range s.messages {
		if msg.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("message %d: %w", id, database.ErrNotFound)
}

func (s *memStore) DeleteConversation(ctx context.Context, a, b string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.messages[:0]
	for _, msg := range s.messages {
		if (msg.From == a && msg.To == b) || (msg.From == b && msg.To == a) {
			continue
		}
		kept = append(kept, msg)
	}
	s.messages = kept
	return nil
}

func (s *memStore) Friends(ctx context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for friend := range s.friends[username] {
		out = append(out, friend)
	}
	return out, nil
}

func (s *memStore) PendingRequests(ctx context.Context, username string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for from, targets := range s.pending {
		if targets[username] {
			out = append(out, from)
		}
	}
	return out, nil
}

func (s *memStore) AreFriends(ctx context.Context, a, b string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friends[a][b], nil
}

func (s *memStore) HasPendingRequest(ctx context.Context, from, to string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending[from][to], nil
}

func (s *memStore) AddPendingRequest(ctx context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[from][to] {
		return fmt.Errorf("request %s -> %s: %w", from, to, database.ErrDuplicate)
	}
	if s.pending[from] == nil {
		s.pending[from] = make(map[string]bool)
	}
	s.pending[from][to] = true
	return nil
}

func (s *memStore) AcceptPendingRequest(ctx context.Context, to, from string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending[from][to] {
		return fmt.Errorf("request %s -> %s: %w", from, to, database.ErrNotFound)
	}
	delete(s.pending[from], to)
	delete(s.pending[to], from)
	if s.friends[from] == nil {
		s.friends[from] = make(map[string]bool)
	}
	if s.friends[to] == nil {
		s.friends[to] = make(map[string]bool)
	}
	s.friends[from][to] = true
	s.friends[to][from] = true
	return nil
}

func (s *memStore) RemovePendingRequest(ctx context.Context, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending[from][to] {
		return fmt.Errorf("request %s -> %s: %w", from, to, database.ErrNotFound)
	}
	delete(s.pending[from], to)
	return nil
}

func (s *memStore) Close() error { return nil }

var _ database.Store = (*memStore)(nil)
