// Package environments manages named screening environments: a thesis, a ticker list and a
// criteria overlay that can be run on demand or on a schedule.
package environments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/interfaces"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/report"
	"github.com/ternarybob/screener/internal/screener"
)

// ErrNoTickers is returned when running an environment without tickers.
var ErrNoTickers = errors.New("environment has no tickers")

// ValidationError wraps an invalid request or criteria payload.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return "invalid environment: " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Listener is notified after environments are stored or removed.
type Listener interface {
	EnvironmentSaved(env *models.Environment)
	EnvironmentDeleted(id string)
}

// Service provides environment CRUD and runs.
type Service struct {
	storage  interfaces.EnvironmentStorage
	fetcher  screener.Fetcher
	reports  *report.Writer
	base     models.CriteriaConfig
	logger   arbor.ILogger
	validate *validator.Validate
	now      func() time.Time
	onResult screener.ResultHandler

	mu        sync.RWMutex
	listeners []Listener
}

// Option configures the Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithResultHandler receives every screening result produced by a run
func WithResultHandler(handler screener.ResultHandler) Option {
	return func(s *Service) {
		s.onResult = handler
	}
}

// NewService creates an environment service. base is the configured criteria every run
// starts from before the environment's own criteria are overlaid.
func NewService(storage interfaces.EnvironmentStorage, fetcher screener.Fetcher, reports *report.Writer, base models.CriteriaConfig, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		storage:  storage,
		fetcher:  fetcher,
		reports:  reports,
		base:     base,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers a listener for environment changes
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// BaseCriteria returns the configured criteria runs start from
func (s *Service) BaseCriteria() models.CriteriaConfig {
	return s.base
}

// List returns all environments ordered by creation time
func (s *Service) List(ctx context.Context) ([]*models.Environment, error) {
	return s.storage.List(ctx)
}

// Get returns one environment
func (s *Service) Get(ctx context.Context, id string) (*models.Environment, error) {
	return s.storage.Get(ctx, id)
}

// Create validates and stores a new environment
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Environment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}
	cfg := models.CriteriaConfig(req.Criteria)
	if err := s.checkCriteria(cfg); err != nil {
		return nil, err
	}
	schedule := strings.TrimSpace(req.Schedule)
	if err := checkSchedule(schedule); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = models.DefaultEnvironmentName
	}

	now := s.now().UTC()
	env := &models.Environment{
		ID:        common.NewEnvironmentID(),
		Name:      name,
		Thesis:    strings.TrimSpace(req.Thesis),
		Tickers:   nonNilTickers(req.Tickers),
		Criteria:  cfg,
		Schedule:  schedule,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.storage.Save(ctx, env); err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("Failed to create environment")
		return nil, err
	}

	s.logger.Info().Str("id", env.ID).Str("name", env.Name).Int("tickers", len(env.Tickers)).Msg("Created environment")
	s.notifySaved(env)
	return env, nil
}

// Update applies req to an existing environment
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*models.Environment, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, &ValidationError{Err: err}
	}

	env, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			env.Name = name
		}
	}
	if req.Thesis != nil {
		env.Thesis = strings.TrimSpace(*req.Thesis)
	}
	if len(req.Tickers) > 0 {
		env.Tickers = req.Tickers
	}
	if len(req.Criteria) > 0 {
		cfg := models.CriteriaConfig(req.Criteria)
		if err := s.checkCriteria(cfg); err != nil {
			return nil, err
		}
		env.Criteria = cfg
	}
	if req.Schedule != nil {
		schedule := strings.TrimSpace(*req.Schedule)
		if err := checkSchedule(schedule); err != nil {
			return nil, err
		}
		env.Schedule = schedule
	}
	env.UpdatedAt = s.now().UTC()

	if err := s.storage.Save(ctx, env); err != nil {
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to update environment")
		return nil, err
	}

	s.logger.Info().Str("id", id).Msg("Updated environment")
	s.notifySaved(env)
	return env, nil
}

// Delete removes an environment
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.storage.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("id", id).Msg("Deleted environment")

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listeners {
		l.EnvironmentDeleted(id)
	}
	return nil
}

// Run screens the environment's tickers against the base criteria overlaid with the
// environment criteria, writes the report set and records the run on the environment.
func (s *Service) Run(ctx context.Context, id string) (*models.RunResponse, error) {
	env, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(env.Tickers) == 0 {
		return nil, ErrNoTickers
	}

	engine, err := criteria.NewEngine(s.base.Merge(env.Criteria), s.logger)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	s.logger.Info().
		Str("id", env.ID).
		Str("name", env.Name).
		Int("tickers", len(env.Tickers)).
		Int("criteria", engine.Len()).
		Msg("Running environment")

	var opts []screener.Option
	if s.onResult != nil {
		opts = append(opts, screener.WithResultHandler(s.onResult))
	}
	results := screener.New(s.fetcher, engine, s.logger, opts...).ScreenMany(ctx, env.Tickers)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runAt := s.now().UTC()
	rep := report.New(env.Name, results, runAt)
	rep.Title = env.Name + " Report"
	rep.Heading = env.Name + " Thesis Report"

	paths, err := s.reports.WriteAll(rep, report.BaseName(env.ID, runAt))
	if err != nil {
		return nil, fmt.Errorf("write reports: %w", err)
	}

	env.LastRunAt = &runAt
	env.LastReport = paths
	if err := s.storage.Save(ctx, env); err != nil {
		s.logger.Error().Err(err).Str("id", env.ID).Msg("Failed to record environment run")
		return nil, err
	}

	summary := screener.Summarize(results)
	s.logger.Info().
		Str("id", env.ID).
		Int("passed", summary.Passed).
		Int("failed", summary.Failed).
		Int("unavailable", summary.Unavailable).
		Msg("Environment run complete")

	return &models.RunResponse{
		Environment: env,
		Summary: models.RunSummary{
			Total:    summary.Total,
			Passed:   summary.Passed,
			Failed:   summary.Failed,
			Analysis: rep.Analysis,
		},
		ReportPaths: paths,
		Results:     rep.Records,
	}, nil
}

func (s *Service) checkCriteria(cfg models.CriteriaConfig) error {
	if len(cfg) == 0 {
		return nil
	}
	if err := criteria.Validate(cfg); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func checkSchedule(schedule string) error {
	if schedule == "" {
		return nil
	}
	if err := common.ValidateSchedule(schedule); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

func (s *Service) notifySaved(env *models.Environment) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listeners {
		l.EnvironmentSaved(env)
	}
}

func nonNilTickers(tickers TickerList) []string {
	if tickers == nil {
		return []string{}
	}
	return tickers
}
