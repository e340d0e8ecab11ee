package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed group store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the groups table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS groups (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			created_by  TEXT NOT NULL,
			is_personal BOOLEAN NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS groups_personal_idx ON groups(created_by) WHERE is_personal`)
	return err
}

// Personal returns the personal group created by userID.
func (s *PgStore) Personal(ctx context.Context, userID string) (*Group, error) {
	var g Group
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, created_by, is_personal, created_at
		FROM groups WHERE created_by = $1 AND is_personal`, userID).
		Scan(&g.ID, &g.Name, &g.CreatedBy, &g.IsPersonal, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("personal group of %s: %w", userID, err)
	}
	return &g, nil
}

// EnsurePersonal creates the personal group if missing. Idempotent.
func (s *PgStore) EnsurePersonal(ctx context.Context, userID, name string) (*Group, error) {
	g, err := s.Personal(ctx, userID)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO groups (id, name, created_by, is_personal, created_at)
		VALUES ($1, $2, $3, TRUE, $4)
		ON CONFLICT DO NOTHING`,
		uuid.Must(uuid.NewV7()).String(), name, userID, time.Now().Truncate(time.Microsecond))
	if err != nil {
		return nil, fmt.Errorf("create personal group of %s: %w", userID, err)
	}

	// Re-fetch in case a concurrent caller won the insert
	return s.Personal(ctx, userID)
}
