// Package screener runs the fetch, derive and evaluate pipeline for one or many tickers.
package screener

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/ratios"
)

// Fetcher returns the fundamentals snapshot for a ticker. *acquirer.Acquirer implements it.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) models.FetchResult
}

// ResultHandler is called with every result as it is produced
type ResultHandler func(result models.ScreeningResult)

// Screener holds one criteria engine and one fetcher for its lifetime
type Screener struct {
	fetcher  Fetcher
	engine   *criteria.Engine
	logger   arbor.ILogger
	handlers []ResultHandler
}

// Option configures a Screener
type Option func(*Screener)

// WithResultHandler adds a handler for produced results
func WithResultHandler(handler ResultHandler) Option {
	return func(s *Screener) {
		if handler != nil {
			s.handlers = append(s.handlers, handler)
		}
	}
}

// New creates a Screener
func New(fetcher Fetcher, engine *criteria.Engine, logger arbor.ILogger, opts ...Option) *Screener {
	s := &Screener{
		fetcher: fetcher,
		engine:  engine,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the criteria engine
func (s *Screener) Engine() *criteria.Engine {
	return s.engine
}

// ScreenOne screens a single ticker. A ticker whose data cannot be fetched fails with
// the data_unavailable marker.
func (s *Screener) ScreenOne(ctx context.Context, ticker string) models.ScreeningResult {
	result := s.screen(ctx, ticker)
	s.emit(result)
	return result
}

func (s *Screener) screen(ctx context.Context, ticker string) models.ScreeningResult {
	key := models.NormalizeTicker(ticker)
	fetched := s.fetcher.Fetch(ctx, key)

	if !fetched.OK() {
		result := models.ScreeningResult{
			Ticker:         key,
			CompanyName:    key,
			PassedCriteria: 0,
			TotalCriteria:  s.engine.Len(),
			Failures:       []string{models.FailureDataUnavailable},
			Status:         models.StatusFail,
			Source:         fetched.Source,
		}
		if fetched.Err != nil {
			result.Error = fetched.Err.Error()
		}
		return result
	}

	data := fetched.Data
	metrics := models.NewMetrics(data, ratios.Derive(data))
	eval := s.engine.Evaluate(key, metrics)

	return models.ScreeningResult{
		Ticker:         key,
		CompanyName:    data.DisplayName(),
		Metrics:        metrics,
		PassedCriteria: eval.Passed,
		TotalCriteria:  eval.Total,
		Failures:       eval.Failures,
		Status:         eval.Status(),
		Source:         fetched.Source,
	}
}

// ScreenMany screens tickers in order. Each ticker is isolated: a panic while screening it
// becomes a FAIL result with the screening_error marker and the batch continues.
func (s *Screener) ScreenMany(ctx context.Context, tickers []string) []models.ScreeningResult {
	results := make([]models.ScreeningResult, 0, len(tickers))
	for i, ticker := range tickers {
		result := s.screenIsolated(ctx, ticker)
		s.logger.Debug().
			Str("ticker", result.Ticker).
			Str("status", string(result.Status)).
			Int("index", i+1).
			Int("total", len(tickers)).
			Msg("Screened ticker")
		s.emit(result)
		results = append(results, result)
	}
	return results
}

func (s *Screener) screenIsolated(ctx context.Context, ticker string) (result models.ScreeningResult) {
	defer func() {
		if r := recover(); r != nil {
			key := models.NormalizeTicker(ticker)
			s.logger.Error().
				Str("ticker", key).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Screening failed")
			result = models.ScreeningResult{
				Ticker:        key,
				CompanyName:   key,
				TotalCriteria: s.engine.Len(),
				Failures:      []string{models.FailureScreeningError},
				Status:        models.StatusFail,
				Source:        models.FetchSourceNone,
				Error:         fmt.Sprintf("%v", r),
			}
		}
	}()
	return s.screen(ctx, ticker)
}

func (s *Screener) emit(result models.ScreeningResult) {
	for _, handler := range s.handlers {
		handler(result)
	}
}

// FilterPassed returns the PASS results, preserving order
func FilterPassed(results []models.ScreeningResult) []models.ScreeningResult {
	passed := make([]models.ScreeningResult, 0, len(results))
	for _, r := range results {
		if r.Passed() {
			passed = append(passed, r)
		}
	}
	return passed
}

// Screen builds an engine for cfg and screens tickers in order. It fails only when cfg is
// structurally invalid.
func Screen(ctx context.Context, fetcher Fetcher, cfg models.CriteriaConfig, tickers []string, logger arbor.ILogger, opts ...Option) ([]models.ScreeningResult, error) {
	engine, err := criteria.NewEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	return New(fetcher, engine, logger, opts...).ScreenMany(ctx, tickers), nil
}
