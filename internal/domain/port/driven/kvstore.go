package driven

import "context"

// KVStore defines the driven port for the persistent key-value store that
// backs storage slots. Implementations offer no atomicity or ordering across
// calls; serialization is the storage channel's job.
type KVStore interface {
	// Get returns the raw JSON value stored under key.
	// Returns (nil, nil) if the key has never been written.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores or replaces the raw JSON value under key.
	Set(ctx context.Context, key string, value []byte) error
}
