package apikey

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed API key store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the api_keys table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS api_keys (
			key        TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS api_keys_user_idx ON api_keys(user_id)`)
	return err
}

// Lookup returns the stored key.
func (s *PgStore) Lookup(ctx context.Context, key string) (*Key, error) {
	var k Key
	err := s.pool.QueryRow(ctx, `SELECT key, user_id, created_at FROM api_keys WHERE key = $1`, key).
		Scan(&k.Key, &k.UserID, &k.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup api key: %w", err)
	}
	return &k, nil
}

// Create mints and stores a new key for userID.
func (s *PgStore) Create(ctx context.Context, userID string) (*Key, error) {
	key, err := Generate()
	if err != nil {
		return nil, err
	}
	k := &Key{Key: key, UserID: userID, CreatedAt: time.Now().Truncate(time.Microsecond)}
	_, err = s.pool.Exec(ctx, `INSERT INTO api_keys (key, user_id, created_at) VALUES ($1, $2, $3)`,
		k.Key, k.UserID, k.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create api key for %s: %w", userID, err)
	}
	return k, nil
}
