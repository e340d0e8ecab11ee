// Package apikey stores the per-user API keys that double as OAuth
// authorization codes and bearer tokens.
package apikey

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Key is a stored API key.
type Key struct {
	Key       string    `json:"key"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotFound is returned when a key is not stored.
var ErrNotFound = errors.New("api key not found")

// Store is the contract for API key persistence.
type Store interface {
	// Lookup returns the stored key, or ErrNotFound.
	Lookup(ctx context.Context, key string) (*Key, error)

	// Create mints and stores a new random key for userID.
	Create(ctx context.Context, userID string) (*Key, error)

	// EnsureTable creates the api_keys table if it doesn't exist.
	EnsureTable(ctx context.Context) error
}

// Generate returns a random 32-byte key, hex encoded.
func Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
