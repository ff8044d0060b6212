// Package store defines the key-value persistence interface for the
// portfolio engine. Implementations include in-memory (for testing),
// Redis, PostgreSQL, and a Redis read-through cache in front of PostgreSQL.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("store: key not found")

// Entry is one key/value pair returned by a prefix scan.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the persistence interface. Each key is strongly consistent on its
// own; there are no multi-key transactions.
type KV interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// GetByPrefix returns every entry whose key starts with prefix,
	// ordered by key.
	GetByPrefix(ctx context.Context, prefix string) ([]Entry, error)
}
