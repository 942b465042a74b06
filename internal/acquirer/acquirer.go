// Package acquirer fetches fundamentals snapshots: cache first, then the provider under a
// shared spacing budget with bounded retries and linear backoff.
package acquirer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/ratelimit"
	"github.com/ternarybob/screener/internal/services/cache"
)

// ErrNoData is returned for a provider response missing the income statement or balance
// sheet. It is retried like a transport error.
var ErrNoData = errors.New("no statement data returned")

const (
	// DefaultRetries is the number of provider attempts per fetch
	DefaultRetries = 3

	// DefaultBackoffStep is the linear backoff unit: attempt n waits n * step
	DefaultBackoffStep = time.Second
)

// Observer receives fetch telemetry
type Observer interface {
	// FetchAttempt is called after every provider attempt
	FetchAttempt(provider string, err error)

	// FetchCompleted is called once per Fetch with the final result
	FetchCompleted(result models.FetchResult, elapsed time.Duration)
}

// Acquirer is the data acquirer. It is safe for concurrent use; spacing is enforced by
// the shared limiter.
type Acquirer struct {
	provider    interfaces.FundamentalsProvider
	cache       *cache.Service
	limiter     *ratelimit.Limiter
	logger      arbor.ILogger
	retries     int
	backoffStep time.Duration
	useCache    bool
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time
	observer    Observer
}

// Option configures an Acquirer
type Option func(*Acquirer)

// WithRetries sets the number of provider attempts; values below 1 mean 1
func WithRetries(retries int) Option {
	return func(a *Acquirer) {
		a.retries = retries
	}
}

// WithBackoffStep sets the linear backoff unit
func WithBackoffStep(step time.Duration) Option {
	return func(a *Acquirer) {
		a.backoffStep = step
	}
}

// WithCache enables or disables cache reads and writes
func WithCache(enabled bool) Option {
	return func(a *Acquirer) {
		a.useCache = enabled
	}
}

// WithSleeper replaces the backoff sleep
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(a *Acquirer) {
		a.sleep = sleep
	}
}

// WithClock replaces the time source used for fetch timings
func WithClock(now func() time.Time) Option {
	return func(a *Acquirer) {
		a.now = now
	}
}

// WithObserver registers fetch telemetry
func WithObserver(observer Observer) Option {
	return func(a *Acquirer) {
		a.observer = observer
	}
}

// New creates an Acquirer. cacheService may be nil, which disables caching. limiter is a
// shared handle: acquirers built on the same limiter share one spacing budget.
func New(provider interfaces.FundamentalsProvider, cacheService *cache.Service, limiter *ratelimit.Limiter, logger arbor.ILogger, opts ...Option) *Acquirer {
	a := &Acquirer{
		provider:    provider,
		cache:       cacheService,
		limiter:     limiter,
		logger:      logger,
		retries:     DefaultRetries,
		backoffStep: DefaultBackoffStep,
		useCache:    cacheService != nil,
		sleep:       ratelimit.Sleep,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.retries < 1 {
		a.retries = 1
	}
	if a.cache == nil {
		a.useCache = false
	}
	if a.limiter == nil {
		a.limiter = ratelimit.New(0)
	}
	return a
}

// Retries returns the configured attempt count
func (a *Acquirer) Retries() int {
	return a.retries
}

// Fetch returns the snapshot for ticker. It never returns an error value: an exhausted or
// cancelled fetch yields a result with nil Data and Err set.
func (a *Acquirer) Fetch(ctx context.Context, ticker string) (result models.FetchResult) {
	key := models.NormalizeTicker(ticker)
	result = models.FetchResult{Ticker: key, Source: models.FetchSourceNone}

	start := a.now()
	defer func() {
		if a.observer != nil {
			a.observer.FetchCompleted(result, a.now().Sub(start))
		}
	}()

	if key == "" {
		result.Err = fmt.Errorf("empty ticker")
		return result
	}

	if a.useCache {
		if data, ok := a.cache.Get(ctx, key); ok {
			result.Data = data
			result.Source = models.FetchSourceCache
			return result
		}
	}

	var lastErr error
	for attempt := 1; attempt <= a.retries; attempt++ {
		if _, err := a.limiter.Wait(ctx); err != nil {
			lastErr = err
			break
		}

		result.Attempts = attempt
		data, err := a.attempt(ctx, key)
		if a.observer != nil {
			a.observer.FetchAttempt(a.provider.Name(), err)
		}

		if err == nil {
			result.Data = data
			result.Source = models.FetchSourceNetwork
			if a.useCache {
				result.CacheWriteErr = a.cache.Put(ctx, key, data)
			}
			return result
		}

		lastErr = err
		a.logger.Warn().
			Err(err).
			Str("ticker", key).
			Int("attempt", attempt).
			Int("retries", a.retries).
			Msg("Fetch attempt failed")

		if attempt < a.retries {
			if err := a.sleep(ctx, time.Duration(attempt)*a.backoffStep); err != nil {
				lastErr = err
				break
			}
		}
	}

	result.Err = lastErr
	a.logger.Error().
		Err(lastErr).
		Str("ticker", key).
		Int("attempts", result.Attempts).
		Msg("Could not fetch fundamentals")
	return result
}

// attempt performs one provider call and validates the response
func (a *Acquirer) attempt(ctx context.Context, key string) (*models.RawFinancials, error) {
	raw, err := a.provider.FetchFinancials(ctx, key)
	if err != nil {
		return nil, err
	}
	if !raw.HasStatements() {
		return nil, fmt.Errorf("%s: %w", key, ErrNoData)
	}

	data := *raw
	data.Ticker = key
	if data.CompanyName == "" {
		data.CompanyName = key
	}
	return &data, nil
}
