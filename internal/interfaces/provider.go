package interfaces

import (
	"context"

	"github.com/ternarybob/screener/internal/models"
)

// FundamentalsProvider returns headline metrics and the two most recent periods of
// statements for a ticker. Any provider with this shape is substitutable.
type FundamentalsProvider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// FetchFinancials performs one upstream call for ticker
	FetchFinancials(ctx context.Context, ticker string) (*models.RawFinancials, error)
}
