package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pairchat/internal/config"
	"pairchat/internal/database"
	"pairchat/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore implements the slice of database.Store the auth service touches.
type fakeStore struct {
	database.Store
	users map[string]*models.User
	otps  map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[string]*models.User),
		otps:  make(map[string]string),
	}
}

func (s *fakeStore) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if _, ok := s.users[req.Username]; ok {
		return nil, fmt.Errorf("username %q: %w", req.Username, database.ErrDuplicate)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		ID:           len(s.users) + 1,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	s.users[req.Username] = user
	copied := *user
	return &copied, nil
}

func (s *fakeStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, fmt.Errorf("user %q: %w", username, database.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) SetOTP(ctx context.Context, username, otp string, expiry time.Time) error {
	if _, ok := s.users[username]; !ok {
		return fmt.Errorf("user %q: %w", username, database.ErrNotFound)
	}
	s.otps[username] = otp
	return nil
}

func (s *fakeStore) VerifyOTP(ctx context.Context, username, otp string) (bool, error) {
	return s.otps[username] == otp && otp != "", nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:    []byte("test-secret"),
			ExpiresIn: time.Hour,
		},
		Chat: config.ChatConfig{
			OTPTTL: 5 * time.Minute,
		},
	}
	return NewService(store, cfg), store
}

func TestRegisterAndLogin(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	resp, err := service.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "alice", resp.User.Username)
	require.Empty(t, resp.User.PasswordHash)

	login, err := service.Login(ctx, &models.LoginRequest{
		Username: "alice",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)

	_, err = service.Login(ctx, &models.LoginRequest{
		Username: "alice",
		Password: "wrong",
	})
	require.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"missing fields", models.RegisterRequest{Username: "alice"}},
		{"bad email", models.RegisterRequest{Username: "alice", Email: "nope", Password: "longenough"}},
		{"short password", models.RegisterRequest{Username: "alice", Email: "a@b.co", Password: "short"}},
		{"short username", models.RegisterRequest{Username: "al", Email: "a@b.co", Password: "longenough"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Register(ctx, &tc.req)
			require.Error(t, err)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	service, _ := newTestService()
	ctx := context.Background()

	resp, err := service.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	user, err := service.GetUserFromToken(ctx, resp.Token)
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)

	_, err = service.GetUserFromToken(ctx, resp.Token+"tampered")
	require.Error(t, err)
}

func TestSendAndVerifyOTP(t *testing.T) {
	service, store := newTestService()
	ctx := context.Background()

	_, err := service.Register(ctx, &models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	require.NoError(t, service.SendOTP(ctx, "alice"))
	otp := store.otps["alice"]
	require.Len(t, otp, 6)

	ok, err := service.VerifyOTP(ctx, "alice", otp)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = service.VerifyOTP(ctx, "alice", "000000")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSendOTPUnknownUser(t *testing.T) {
	service, _ := newTestService()

	err := service.SendOTP(context.Background(), "ghost")
	require.ErrorIs(t, err, database.ErrNotFound)
}
