package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/screener/internal/models"
)

// ErrEnvironmentNotFound is returned when an environment id does not exist
var ErrEnvironmentNotFound = errors.New("environment not found")

// EnvironmentStorage persists screening environments
type EnvironmentStorage interface {
	Save(ctx context.Context, env *models.Environment) error
	Get(ctx context.Context, id string) (*models.Environment, error)
	List(ctx context.Context) ([]*models.Environment, error)
	Delete(ctx context.Context, id string) error
}
