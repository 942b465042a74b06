package storage

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/storage/badger"
	"github.com/ternarybob/screener/internal/storage/file"
	"github.com/ternarybob/screener/internal/storage/redis"
)

// NewCacheStore creates the cache store selected by config.Cache.Backend.
// When manager is non-nil the badger backend shares its database; otherwise a dedicated
// database is opened and closed together with the returned store.
func NewCacheStore(ctx context.Context, logger arbor.ILogger, config *common.Config, manager *badger.Manager) (interfaces.CacheStore, error) {
	var (
		store interfaces.CacheStore
		err   error
	)

	switch config.Cache.Backend {
	case common.CacheBackendFile, "":
		store, err = file.NewCacheStore(config.Cache.Dir, logger)
	case common.CacheBackendBadger:
		if manager != nil {
			return manager.CacheStore(), nil
		}
		store, err = badger.OpenCacheStore(logger, &config.Storage.Badger)
	case common.CacheBackendRedis:
		store, err = redis.Open(ctx, &config.Storage.Redis, logger)
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s (expected file, badger or redis)", config.Cache.Backend)
	}

	if err != nil {
		return nil, err
	}
	logger.Debug().Str("backend", config.Cache.Backend).Msg("Cache store created")
	return store, nil
}

// NewStorageManager opens the Badger storage used by the web server
func NewStorageManager(logger arbor.ILogger, config *common.Config) (*badger.Manager, error) {
	return badger.NewManager(logger, &config.Storage.Badger)
}
