// Package redis implements a cache store shared between hosts.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/interfaces"
)

// DefaultPrefix namespaces cache keys
const DefaultPrefix = "screener:cache:"

// CacheStore keeps entries as JSON strings. Keys carry no redis expiry: freshness is
// decided by the fetch cache from WrittenAt.
type CacheStore struct {
	client *redis.Client
	prefix string
	logger arbor.ILogger
}

// NewCacheStore wraps an existing client
func NewCacheStore(client *redis.Client, prefix string, logger arbor.ILogger) *CacheStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &CacheStore{client: client, prefix: prefix, logger: logger}
}

// Open connects to redis using config and verifies the connection
func Open(ctx context.Context, config *common.RedisConfig, logger arbor.ILogger) (*CacheStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Debug().Str("addr", config.Addr).Int("db", config.DB).Msg("Redis cache store connected")
	return NewCacheStore(client, config.Prefix, logger), nil
}

func (s *CacheStore) key(key string) string {
	return s.prefix + key
}

// Get implements interfaces.CacheStore
func (s *CacheStore) Get(ctx context.Context, key string) (*interfaces.CacheRecord, error) {
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var record interfaces.CacheRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	record.Key = key
	return &record, nil
}

// Put implements interfaces.CacheStore
func (s *CacheStore) Put(ctx context.Context, record interfaces.CacheRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.Key), string(data), 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close implements interfaces.CacheStore
func (s *CacheStore) Close() error {
	return s.client.Close()
}
