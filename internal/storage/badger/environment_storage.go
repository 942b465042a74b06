package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/models"
)

// EnvironmentStorage implements the EnvironmentStorage interface for Badger
type EnvironmentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewEnvironmentStorage creates a new EnvironmentStorage instance
func NewEnvironmentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.EnvironmentStorage {
	return &EnvironmentStorage{
		db:     db,
		logger: logger,
	}
}

// Save inserts or replaces an environment by ID
func (s *EnvironmentStorage) Save(ctx context.Context, env *models.Environment) error {
	if env.ID == "" {
		return fmt.Errorf("environment ID is required")
	}
	if err := s.db.Store().Upsert(env.ID, env); err != nil {
		return fmt.Errorf("failed to save environment: %w", err)
	}
	return nil
}

// Get retrieves an environment by ID
func (s *EnvironmentStorage) Get(ctx context.Context, id string) (*models.Environment, error) {
	var env models.Environment
	err := s.db.Store().Get(id, &env)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return nil, interfaces.ErrEnvironmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get environment: %w", err)
	}
	return &env, nil
}

// List returns all environments, oldest first
func (s *EnvironmentStorage) List(ctx context.Context) ([]*models.Environment, error) {
	var envs []models.Environment
	if err := s.db.Store().Find(&envs, nil); err != nil {
		return nil, fmt.Errorf("failed to list environments: %w", err)
	}

	sort.SliceStable(envs, func(i, j int) bool {
		return envs[i].CreatedAt.Before(envs[j].CreatedAt)
	})

	result := make([]*models.Environment, len(envs))
	for i := range envs {
		result[i] = &envs[i]
	}
	return result, nil
}

// Delete removes an environment by ID
func (s *EnvironmentStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Environment{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrEnvironmentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete environment: %w", err)
	}
	return nil
}
