// -----------------------------------------------------------------------
// Last Modified: Tuesday, 13th October 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned when no entry exists for a key. Any other error from a
// CacheStore is a storage failure.
var ErrCacheMiss = errors.New("cache entry not found")

// CacheRecord is one stored cache entry
type CacheRecord struct {
	Key       string    `json:"key"`
	Payload   []byte    `json:"payload"`
	WrittenAt time.Time `json:"written_at"`
}

// CacheStore is a byte store keyed by normalized ticker
type CacheStore interface {
	// Get returns the entry for key, or ErrCacheMiss
	Get(ctx context.Context, key string) (*CacheRecord, error)

	// Put writes the entry for key, replacing any previous entry
	Put(ctx context.Context, record CacheRecord) error

	// Close releases the underlying resources
	Close() error
}
