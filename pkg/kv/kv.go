// Package kv provides the key-value store behind the pipeline's target
// locks. A job takes a lock keyed by its target document before exporting
// and releases it after cleanup, so no two jobs ever hold mutation rights
// to the same target. The in-memory store covers a single process; the
// Valkey store extends the same guarantee across batch processes sharing
// an image library.
package kv

import (
	"context"
	"time"
)

// Store defines a minimal key-value interface with TTL support.
// Keys are strings, values are byte slices.
type Store interface {
	// Set stores a value with the given key and TTL.
	// If TTL is 0, the key does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value by key. Returns ErrNotFound if key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Returns nil if key doesn't exist.
	Delete(ctx context.Context, key string) error

	// SetNX sets a value only if the key doesn't exist (atomic).
	// Returns true if the key was set, false if it already existed.
	// Lock acquisition is built on this.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Close closes the connection to the store.
	Close() error
}

// TargetLockKey is the lock key guarding one target document.
func TargetLockKey(targetID string) string {
	return "lock:target:" + targetID
}

// ownerDeleter is the optional fast path for releasing a lock: delete the
// key only if it still holds the given value, atomically. Backends that
// can't offer it fall back to a get-compare-delete in TargetLock.Release.
type ownerDeleter interface {
	DeleteIfEqual(ctx context.Context, key string, value []byte) error
}
