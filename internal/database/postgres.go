package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pairchat/internal/models"
	"pairchat/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

type PostgresDB struct {
	pool *pgxpool.Pool
}

func NewPostgresDB(databaseURL string) (*PostgresDB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to database successfully")
	return &PostgresDB{pool: pool}, nil
}

func (db *PostgresDB) Close() error {
	db.pool.Close()
	return nil
}

// User Repository Implementation
func (db *PostgresDB) CreateUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (username, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, email, created_at`

	user := &models.User{PasswordHash: string(hash)}
	err = db.pool.QueryRow(ctx, query, req.Username, req.Email, string(hash)).Scan(
		&user.ID, &user.Username, &user.Email, &user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("username %q: %w", req.Username, ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (db *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`

	user := &models.User{}
	err := db.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (db *PostgresDB) ListUsernames(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, err
		}
		usernames = append(usernames, username)
	}

	return usernames, rows.Err()
}

func (db *PostgresDB) SetOTP(ctx context.Context, username, otp string, expiry time.Time) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE users SET otp = $2, otp_expiry = $3 WHERE username = $1`,
		username, otp, expiry,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return nil
}

func (db *PostgresDB) VerifyOTP(ctx context.Context, username, otp string) (bool, error) {
	var stored *string
	var expiry *time.Time
	err := db.pool.QueryRow(ctx,
		`SELECT otp, otp_expiry FROM users WHERE username = $1`, username,
	).Scan(&stored, &expiry)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return false, err
	}

	if stored == nil || expiry == nil {
		return false, nil
	}
	return *stored == otp && time.Now().Before(*expiry), nil
}

// Message Repository Implementation
func (db *PostgresDB) SaveMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (sender, recipient, body, file_name, file_url, sent_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, sent_at`

	stored := *msg
	err := db.pool.QueryRow(ctx, query, msg.From, msg.To, msg.Text, msg.FileName, msg.FileURL).Scan(
		&stored.ID, &stored.SentAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	return &stored, nil
}

func (db *PostgresDB) LoadConversation(ctx context.Context, a, b string, limit int) ([]*models.Message, error) {
	query := `
		SELECT id, sender, recipient, body, file_name, file_url, sent_at
		FROM messages
		WHERE (sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1)
		ORDER BY sent_at DESC
		LIMIT $3`

	rows, err := db.pool.Query(ctx, query, a, b, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.From, &msg.To, &msg.Text, &msg.FileName, &msg.FileURL, &msg.SentAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Reverse to show oldest first
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (db *PostgresDB) DeleteMessage(ctx context.Context, id int64) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("message %d: %w", id, ErrNotFound)
	}
	return nil
}

func (db *PostgresDB) DeleteConversation(ctx context.Context, a, b string) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM messages WHERE (sender = $1 AND recipient = $2) OR (sender = $2 AND recipient = $1)`,
		a, b,
	)
	return err
}

// Friend Repository Implementation
//
// Confirmed friendships are stored as two rows, one per direction, so the
// symmetric invariant is visible in the schema itself. Pending requests are
// a single (from_user, to_user) row.
func (db *PostgresDB) Friends(ctx context.Context, username string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT friend FROM friends WHERE username = $1 ORDER BY friend`, username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []string
	for rows.Next() {
		var friend string
		if err := rows.Scan(&friend); err != nil {
			return nil, err
		}
		friends = append(friends, friend)
	}

	return friends, rows.Err()
}

func (db *PostgresDB) PendingRequests(ctx context.Context, username string) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT from_user FROM friend_requests WHERE to_user = $1 ORDER BY requested_at`, username,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requesters []string
	for rows.Next() {
		var from string
		if err := rows.Scan(&from); err != nil {
			return nil, err
		}
		requesters = append(requesters, from)
	}

	return requesters, rows.Err()
}

func (db *PostgresDB) AreFriends(ctx context.Context, a, b string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friends WHERE username = $1 AND friend = $2)`, a, b,
	).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) HasPendingRequest(ctx context.Context, from, to string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM friend_requests WHERE from_user = $1 AND to_user = $2)`, from, to,
	).Scan(&exists)
	return exists, err
}

func (db *PostgresDB) AddPendingRequest(ctx context.Context, from, to string) error {
	query := `
		INSERT INTO friend_requests (from_user, to_user, requested_at) VALUES ($1, $2, NOW())
		ON CONFLICT (from_user, to_user) DO NOTHING`

	tag, err := db.pool.Exec(ctx, query, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request %s -> %s: %w", from, to, ErrDuplicate)
	}
	return nil
}

// AcceptPendingRequest removes the pending edges for the pair and inserts
// the confirmed friendship in both directions in one transaction, so a
// pending edge and a friendship can never coexist in either direction. A
// crossed request from the accepter is consumed by the same acceptance.
func (db *PostgresDB) AcceptPendingRequest(ctx context.Context, to, from string) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM friend_requests WHERE from_user = $1 AND to_user = $2`, from, to,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request %s -> %s: %w", from, to, ErrNotFound)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM friend_requests WHERE from_user = $1 AND to_user = $2`, to, from,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO friends (username, friend) VALUES ($1, $2), ($2, $1) ON CONFLICT DO NOTHING`,
		from, to,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (db *PostgresDB) RemovePendingRequest(ctx context.Context, from, to string) error {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM friend_requests WHERE from_user = $1 AND to_user = $2`, from, to,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("request %s -> %s: %w", from, to, ErrNotFound)
	}
	return nil
}
