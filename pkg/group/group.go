package group

import (
	"context"
	"errors"
	"time"
)

// Group is a set of users sharing a task list. Every user has exactly one
// personal group that owns their tasks when no group is named.
type Group struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	CreatedBy  string    `json:"created_by"`
	IsPersonal bool      `json:"is_personal"`
	CreatedAt  time.Time `json:"created_at"`
}

// ErrNotFound is returned when no group matches a lookup.
var ErrNotFound = errors.New("group not found")

// Store is the contract for group persistence.
type Store interface {
	// Personal returns the personal group created by userID, or ErrNotFound.
	Personal(ctx context.Context, userID string) (*Group, error)

	// EnsurePersonal returns the user's personal group, creating it with
	// the given name if it does not exist yet. Idempotent.
	EnsurePersonal(ctx context.Context, userID, name string) (*Group, error)

	// EnsureTable creates the groups table if it doesn't exist.
	EnsureTable(ctx context.Context) error
}
