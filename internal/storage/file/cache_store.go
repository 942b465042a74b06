// Package file implements the on-disk cache store: one JSON file per ticker,
// replaced atomically on every write.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/interfaces"
)

// envelope is the on-disk layout of one entry
type envelope struct {
	Key       string          `json:"key"`
	WrittenAt time.Time       `json:"written_at"`
	Payload   json.RawMessage `json:"payload"`
}

// CacheStore keeps entries as files under dir. Writers go through a temp file and a
// rename, so concurrent readers in other processes see either the old or the new entry.
type CacheStore struct {
	dir    string
	logger arbor.ILogger
}

// NewCacheStore creates the cache directory if needed
func NewCacheStore(dir string, logger arbor.ILogger) (*CacheStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	logger.Debug().Str("dir", dir).Msg("File cache store initialized")
	return &CacheStore{dir: dir, logger: logger}, nil
}

// Path returns the file that holds key
func (s *CacheStore) Path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

func fileName(key string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_")
	return replacer.Replace(key) + ".json"
}

// Get implements interfaces.CacheStore
func (s *CacheStore) Get(ctx context.Context, key string) (*interfaces.CacheRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, interfaces.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode cache file %s: %w", s.Path(key), err)
	}

	return &interfaces.CacheRecord{
		Key:       key,
		Payload:   []byte(env.Payload),
		WrittenAt: env.WrittenAt,
	}, nil
}

// Put implements interfaces.CacheStore
func (s *CacheStore) Put(ctx context.Context, record interfaces.CacheRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !json.Valid(record.Payload) {
		return fmt.Errorf("cache payload for %s is not valid JSON", record.Key)
	}

	data, err := json.Marshal(envelope{
		Key:       record.Key,
		WrittenAt: record.WrittenAt,
		Payload:   json.RawMessage(record.Payload),
	})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+fileName(record.Key)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path(record.Key)); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// Close implements interfaces.CacheStore
func (s *CacheStore) Close() error {
	return nil
}
