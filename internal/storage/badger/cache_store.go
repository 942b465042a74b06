package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/screener/internal/interfaces"
)

// cacheEntry is the badgerhold record type; a distinct type keeps cache entries in their
// own badgerhold namespace.
type cacheEntry interfaces.CacheRecord

// CacheStore implements interfaces.CacheStore on Badger
type CacheStore struct {
	db     *BadgerDB
	logger arbor.ILogger
	owned  bool
}

// NewCacheStore creates a cache store on a shared database. Close leaves the database open.
func NewCacheStore(db *BadgerDB, logger arbor.ILogger) *CacheStore {
	return &CacheStore{db: db, logger: logger}
}

// newOwnedCacheStore creates a cache store that closes db on Close
func newOwnedCacheStore(db *BadgerDB, logger arbor.ILogger) *CacheStore {
	return &CacheStore{db: db, logger: logger, owned: true}
}

// Get implements interfaces.CacheStore
func (s *CacheStore) Get(ctx context.Context, key string) (*interfaces.CacheRecord, error) {
	var entry cacheEntry
	err := s.db.Store().Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	record := interfaces.CacheRecord(entry)
	return &record, nil
}

// Put implements interfaces.CacheStore
func (s *CacheStore) Put(ctx context.Context, record interfaces.CacheRecord) error {
	entry := cacheEntry(record)
	if err := s.db.Store().Upsert(record.Key, &entry); err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// Close implements interfaces.CacheStore
func (s *CacheStore) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
