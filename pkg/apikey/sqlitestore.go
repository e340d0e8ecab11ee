package apikey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorevlerim/internal/db"
)

// SQLiteStore is a SQLite-backed API key store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLiteStore on an open database.
func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

// EnsureTable creates the api_keys table if it doesn't exist.
func (s *SQLiteStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS api_keys (
			key        TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS api_keys_user_idx ON api_keys(user_id);`)
	if err != nil {
		return fmt.Errorf("create api_keys table: %w", err)
	}
	return nil
}

// Lookup returns the stored key.
func (s *SQLiteStore) Lookup(ctx context.Context, key string) (*Key, error) {
	var k Key
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT key, user_id, created_at FROM api_keys WHERE key = ?`, key).
		Scan(&k.Key, &k.UserID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup api key: %w", err)
	}
	if k.CreatedAt, err = db.ParseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("api key created_at: %w", err)
	}
	return &k, nil
}

// Create mints and stores a new key for userID.
func (s *SQLiteStore) Create(ctx context.Context, userID string) (*Key, error) {
	key, err := Generate()
	if err != nil {
		return nil, err
	}
	k := &Key{Key: key, UserID: userID, CreatedAt: time.Now().UTC()}
	_, err = s.db.ExecContext(ctx, `INSERT INTO api_keys (key, user_id, created_at) VALUES (?, ?, ?)`,
		k.Key, k.UserID, db.FormatSQLiteTime(k.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("create api key for %s: %w", userID, err)
	}
	return k, nil
}
