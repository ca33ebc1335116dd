package database

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            SERIAL PRIMARY KEY,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		otp           TEXT,
		otp_expiry    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id        BIGSERIAL PRIMARY KEY,
		sender    TEXT NOT NULL,
		recipient TEXT NOT NULL,
		body      TEXT NOT NULL DEFAULT '',
		file_name TEXT NOT NULL DEFAULT '',
		file_url  TEXT NOT NULL DEFAULT '',
		sent_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_pair
		ON messages (sender, recipient, sent_at)`,
	`CREATE TABLE IF NOT EXISTS friends (
		username TEXT NOT NULL,
		friend   TEXT NOT NULL,
		PRIMARY KEY (username, friend)
	)`,
	`CREATE TABLE IF NOT EXISTS friend_requests (
		from_user    TEXT NOT NULL,
		to_user      TEXT NOT NULL,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (from_user, to_user)
	)`,
}

// EnsureSchema creates the tables on first start. Statements are idempotent
// so restarts are safe.
func (db *PostgresDB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
