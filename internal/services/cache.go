package services

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations. It also carries
// the small primitive set the lease lock is built on: SetNX for
// acquisition, Expire for heartbeat renewal, and CompareAndDelete for
// owner-checked release.
type Cache interface {
	// Ping tests the cache connection
	Ping(ctx context.Context) error

	// Set stores a key-value pair with optional expiration
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Get retrieves a value by key. Returns an empty string for a
	// missing key, not an error.
	Get(ctx context.Context, key string) (string, error)

	// SetNX stores the pair only if the key does not exist. Returns
	// true if the key was set.
	SetNX(ctx context.Context, key string, value string, expiration time.Duration) (bool, error)

	// Expire replaces the key's TTL. Returns false if the key is gone.
	Expire(ctx context.Context, key string, expiration time.Duration) (bool, error)

	// CompareAndDelete deletes the key only if it still holds value.
	// Returns true if the key was deleted.
	CompareAndDelete(ctx context.Context, key string, value string) (bool, error)

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) error

	// Exists checks if keys exist
	Exists(ctx context.Context, keys ...string) (bool, error)

	// Close closes the cache connection
	Close() error

	// WaitForConnection waits for cache to be available with retries
	WaitForConnection(ctx context.Context) error
}
