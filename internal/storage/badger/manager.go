package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/interfaces"
)

// Manager owns the Badger database and the stores built on it
type Manager struct {
	db           *BadgerDB
	cache        *CacheStore
	environments interfaces.EnvironmentStorage
	logger       arbor.ILogger
}

// NewManager opens the database and creates the stores
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:           db,
		cache:        NewCacheStore(db, logger),
		environments: NewEnvironmentStorage(db, logger),
		logger:       logger,
	}

	logger.Info().Str("path", config.Path).Msg("Badger storage manager initialized")

	return manager, nil
}

// OpenCacheStore opens a dedicated database for the CLI cache; closing the store closes the database.
func OpenCacheStore(logger arbor.ILogger, config *common.BadgerConfig) (*CacheStore, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}
	return newOwnedCacheStore(db, logger), nil
}

// CacheStore returns the cache store on the shared database
func (m *Manager) CacheStore() interfaces.CacheStore {
	return m.cache
}

// EnvironmentStorage returns the environment storage interface
func (m *Manager) EnvironmentStorage() interfaces.EnvironmentStorage {
	return m.environments
}

// DB returns the underlying Badger database
func (m *Manager) DB() *BadgerDB {
	return m.db
}

// Close closes the database
func (m *Manager) Close() error {
	return m.db.Close()
}
