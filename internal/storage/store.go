// Package storage is the client's durable key-value store: a handful of string values
// under fixed keys, kept in a single file between runs. The session record and the
// open order draft both live here, so Clear wipes everything the client remembers.
package storage

import (
	"context"
)

// Store is a string key-value store.
type Store interface {
	// Get returns the value under key, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
}
