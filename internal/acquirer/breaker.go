package acquirer

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/models"
)

// BreakerProvider wraps a provider with a circuit breaker. While open, calls fail fast
// with gobreaker.ErrOpenState and count as ordinary failed attempts.
type BreakerProvider struct {
	inner   interfaces.FundamentalsProvider
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerProvider trips after maxFailures consecutive failures and probes again after openTimeout.
func NewBreakerProvider(inner interfaces.FundamentalsProvider, maxFailures int, openTimeout time.Duration, logger arbor.ILogger) *BreakerProvider {
	if maxFailures < 1 {
		maxFailures = 1
	}
	settings := gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Provider circuit breaker state changed")
		},
	}
	return &BreakerProvider{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Name implements interfaces.FundamentalsProvider
func (p *BreakerProvider) Name() string {
	return p.inner.Name()
}

// State returns the breaker state
func (p *BreakerProvider) State() gobreaker.State {
	return p.breaker.State()
}

// FetchFinancials implements interfaces.FundamentalsProvider
func (p *BreakerProvider) FetchFinancials(ctx context.Context, ticker string) (*models.RawFinancials, error) {
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.inner.FetchFinancials(ctx, ticker)
	})
	if err != nil {
		return nil, err
	}
	return out.(*models.RawFinancials), nil
}
