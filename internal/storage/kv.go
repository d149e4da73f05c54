package storage

import "context"

//go:generate moq -out kv_mock.go . KV

// KV defines the durable key-value collaborator used for all persistence.
// Values are opaque bytes; callers store JSON documents.
type KV interface {
	// Get returns the value stored under key
	// Returns ErrKeyNotFound if nothing is stored
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing a missing key is not an error
	Remove(ctx context.Context, key string) error
}
