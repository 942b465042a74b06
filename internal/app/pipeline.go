package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/acquirer"
	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/eodhd"
	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/metrics"
	"github.com/ternarybob/screener/internal/ratelimit"
	"github.com/ternarybob/screener/internal/services/cache"
	"github.com/ternarybob/screener/internal/storage"
	"github.com/ternarybob/screener/internal/storage/badger"
)

// Pipeline is the fetch stack shared by the CLI, the web server and the MCP server:
// cache store, fetch cache, provider and acquirer.
type Pipeline struct {
	Cache    *cache.Service
	Provider interfaces.FundamentalsProvider
	Limiter  *ratelimit.Limiter
	Acquirer *acquirer.Acquirer
	logger   arbor.ILogger
}

// NewPipeline builds the fetch stack from config. manager may be nil, in which case a
// badger cache backend opens its own database. collector may be nil.
func NewPipeline(ctx context.Context, cfg *common.Config, logger arbor.ILogger, manager *badger.Manager, collector *metrics.Collector) (*Pipeline, error) {
	store, err := storage.NewCacheStore(ctx, logger, cfg, manager)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	var cacheOpts []cache.Option
	if collector != nil {
		cacheOpts = append(cacheOpts, cache.WithObserver(collector.CacheEvent))
	}
	cacheService := cache.NewService(store, cfg.Fetch.TTL.Duration, logger, cacheOpts...)

	if cfg.EODHD.APIKey == "" {
		logger.Warn().Msg("No EODHD API key configured; uncached tickers will be reported as data unavailable")
	}
	client := eodhd.NewClient(cfg.EODHD.APIKey,
		eodhd.WithBaseURL(cfg.EODHD.BaseURL),
		eodhd.WithTimeout(cfg.EODHD.Timeout.Duration),
		eodhd.WithLogger(logger),
	)
	var provider interfaces.FundamentalsProvider = eodhd.NewProvider(client, cfg.EODHD.Exchange, logger)
	if cfg.Breaker.Enabled {
		provider = acquirer.NewBreakerProvider(provider, cfg.Breaker.MaxFailures, cfg.Breaker.OpenTimeout.Duration, logger)
		logger.Debug().Int("max_failures", cfg.Breaker.MaxFailures).Msg("Provider circuit breaker enabled")
	}

	limiter := ratelimit.New(cfg.Fetch.Delay.Duration)

	opts := []acquirer.Option{
		acquirer.WithRetries(cfg.Fetch.Retries),
		acquirer.WithBackoffStep(cfg.Fetch.BackoffStep.Duration),
		acquirer.WithCache(cfg.Fetch.UseCache),
	}
	if collector != nil {
		opts = append(opts, acquirer.WithObserver(collector))
	}

	logger.Debug().
		Str("cache_backend", cfg.Cache.Backend).
		Dur("ttl", cfg.Fetch.TTL.Duration).
		Dur("delay", cfg.Fetch.Delay.Duration).
		Int("retries", cfg.Fetch.Retries).
		Bool("use_cache", cfg.Fetch.UseCache).
		Msg("Fetch pipeline initialized")

	return &Pipeline{
		Cache:    cacheService,
		Provider: provider,
		Limiter:  limiter,
		Acquirer: acquirer.New(provider, cacheService, limiter, logger, opts...),
		logger:   logger,
	}, nil
}

// Close releases the cache store
func (p *Pipeline) Close() error {
	if err := p.Cache.Close(); err != nil {
		return fmt.Errorf("failed to close cache store: %w", err)
	}
	return nil
}
