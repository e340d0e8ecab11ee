package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gorevlerim/internal/db"
)

// SQLiteStore is a SQLite-backed group store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLiteStore on an open database.
func NewSQLiteStore(conn *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: conn}
}

// EnsureTable creates the groups table if it doesn't exist.
func (s *SQLiteStore) EnsureTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS "groups" (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			created_by  TEXT NOT NULL,
			is_personal INTEGER NOT NULL DEFAULT 0,
			created_at  TEXT NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS groups_personal_idx ON "groups"(created_by) WHERE is_personal = 1;`)
	if err != nil {
		return fmt.Errorf("create groups table: %w", err)
	}
	return nil
}

// Personal returns the personal group created by userID.
func (s *SQLiteStore) Personal(ctx context.Context, userID string) (*Group, error) {
	var g Group
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_by, is_personal, created_at
		FROM "groups" WHERE created_by = ? AND is_personal = 1`, userID).
		Scan(&g.ID, &g.Name, &g.CreatedBy, &g.IsPersonal, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("personal group of %s: %w", userID, err)
	}
	if g.CreatedAt, err = db.ParseSQLiteTime(createdAt); err != nil {
		return nil, fmt.Errorf("personal group of %s created_at: %w", userID, err)
	}
	return &g, nil
}

// EnsurePersonal creates the personal group if missing. Idempotent.
func (s *SQLiteStore) EnsurePersonal(ctx context.Context, userID, name string) (*Group, error) {
	g, err := s.Personal(ctx, userID)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO "groups" (id, name, created_by, is_personal, created_at)
		VALUES (?, ?, ?, 1, ?)`,
		uuid.Must(uuid.NewV7()).String(), name, userID, db.FormatSQLiteTime(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("create personal group of %s: %w", userID, err)
	}
	return s.Personal(ctx, userID)
}
