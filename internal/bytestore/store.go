// Package bytestore provides the opaque key→bytes persistence layer behind
// the indicator cache. Backends differ in durability and deployment shape
// (in-process memory, compressed files, SQLite, Redis) but share one
// contract: values persist at least until evicted, and callers make no
// assumption about compression or physical layout.
package bytestore

import "context"

// Stats summarizes a store's contents and access counters.
type Stats struct {
	SizeBytes int64 `json:"size_bytes"`
	ItemCount int64 `json:"item_count"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
}

// Store is the byte-level persistence contract. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the stored value for key. The second return is false when
	// the key is absent; absence is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Stats reports size, item count, and hit/miss counters.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}
