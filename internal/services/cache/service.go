// Package cache provides the TTL-bound fetch cache in front of the fundamentals provider.
// It decides whether a stored snapshot can be reused and never fails a caller: every
// storage problem degrades to a miss and is counted.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/models"
)

// Cache events reported to observers
const (
	EventHit        = "hit"
	EventMiss       = "miss"
	EventExpired    = "expired"
	EventReadError  = "read_error"
	EventWrite      = "write"
	EventWriteError = "write_error"
)

// Stats counts cache outcomes since the Service was created
type Stats struct {
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Expired     int64 `json:"expired"`
	ReadErrors  int64 `json:"read_errors"`
	Writes      int64 `json:"writes"`
	WriteErrors int64 `json:"write_errors"`
}

// Service is the fetch cache. Entries older than ttl are treated as absent but left in
// the store; a later Put overwrites them.
type Service struct {
	store    interfaces.CacheStore
	ttl      time.Duration
	logger   arbor.ILogger
	now      func() time.Time
	observer func(event string)

	hits        atomic.Int64
	misses      atomic.Int64
	expired     atomic.Int64
	readErrors  atomic.Int64
	writes      atomic.Int64
	writeErrors atomic.Int64
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces the time source used for write stamps and expiry
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithObserver registers a callback invoked for every cache event
func WithObserver(observer func(event string)) Option {
	return func(s *Service) {
		s.observer = observer
	}
}

// NewService creates a fetch cache over store
func NewService(store interfaces.CacheStore, ttl time.Duration, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the freshness window
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// Get returns the cached snapshot for ticker when one exists and is within the TTL.
func (s *Service) Get(ctx context.Context, ticker string) (*models.RawFinancials, bool) {
	key := models.NormalizeTicker(ticker)

	record, err := s.store.Get(ctx, key)
	if errors.Is(err, interfaces.ErrCacheMiss) {
		s.record(EventMiss, &s.misses)
		return nil, false
	}
	if err != nil {
		s.record(EventReadError, &s.readErrors)
		s.logger.Warn().Err(err).Str("ticker", key).Msg("Failed to read cache entry, treating as miss")
		return nil, false
	}

	if s.now().Sub(record.WrittenAt) > s.ttl {
		s.record(EventExpired, &s.expired)
		s.logger.Debug().Str("ticker", key).Str("written_at", record.WrittenAt.Format(time.RFC3339)).Msg("Cache entry expired")
		return nil, false
	}

	var data models.RawFinancials
	if err := json.Unmarshal(record.Payload, &data); err != nil {
		s.record(EventReadError, &s.readErrors)
		s.logger.Warn().Err(err).Str("ticker", key).Msg("Malformed cache entry, treating as miss")
		return nil, false
	}
	if !data.HasStatements() {
		s.record(EventReadError, &s.readErrors)
		s.logger.Warn().Str("ticker", key).Msg("Cache entry has no statement data, treating as miss")
		return nil, false
	}

	s.record(EventHit, &s.hits)
	s.logger.Debug().Str("ticker", key).Msg("Cache hit")
	return &data, true
}

// Put stores data for ticker. A failed write is logged and returned for the caller to
// record; it is never fatal.
func (s *Service) Put(ctx context.Context, ticker string, data *models.RawFinancials) error {
	key := models.NormalizeTicker(ticker)

	if err := s.put(ctx, key, data); err != nil {
		s.record(EventWriteError, &s.writeErrors)
		s.logger.Warn().Err(err).Str("ticker", key).Msg("Failed to write cache entry")
		return err
	}

	s.record(EventWrite, &s.writes)
	return nil
}

func (s *Service) put(ctx context.Context, key string, data *models.RawFinancials) error {
	if !data.HasStatements() {
		return fmt.Errorf("refusing to cache %s without statement data", key)
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return s.store.Put(ctx, interfaces.CacheRecord{
		Key:       key,
		Payload:   payload,
		WrittenAt: s.now(),
	})
}

// Stats returns a snapshot of the counters
func (s *Service) Stats() Stats {
	return Stats{
		Hits:        s.hits.Load(),
		Misses:      s.misses.Load(),
		Expired:     s.expired.Load(),
		ReadErrors:  s.readErrors.Load(),
		Writes:      s.writes.Load(),
		WriteErrors: s.writeErrors.Load(),
	}
}

// Close closes the underlying store
func (s *Service) Close() error {
	return s.store.Close()
}

func (s *Service) record(event string, counter *atomic.Int64) {
	counter.Add(1)
	if s.observer != nil {
		s.observer(event)
	}
}
