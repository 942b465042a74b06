package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/models"
)

// Runner lists and runs environments
type Runner interface {
	List(ctx context.Context) ([]*models.Environment, error)
	Run(ctx context.Context, id string) (*models.RunResponse, error)
}

// jobEntry represents a scheduled environment run
type jobEntry struct {
	envID     string
	name      string
	schedule  string
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// JobStatus describes one scheduled environment
type JobStatus struct {
	EnvironmentID string     `json:"environment_id"`
	Name          string     `json:"name"`
	Schedule      string     `json:"schedule"`
	LastRun       *time.Time `json:"last_run,omitempty"`
	NextRun       *time.Time `json:"next_run,omitempty"`
	IsRunning     bool       `json:"is_running"`
	LastError     string     `json:"last_error,omitempty"`
}

// Service runs environments on their cron schedules
type Service struct {
	runner   Runner
	cron     *cron.Cron
	logger   arbor.ILogger
	globalMu sync.Mutex // Serializes environment runs
	jobMu    sync.Mutex // Protects jobs map
	jobs     map[string]*jobEntry
	running  bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewService creates a new scheduler service
func NewService(runner Runner, logger arbor.ILogger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		runner: runner,
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*jobEntry),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers every scheduled environment and starts the cron loop
func (s *Service) Start(ctx context.Context) error {
	s.jobMu.Lock()
	if s.running {
		s.jobMu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.jobMu.Unlock()

	envs, err := s.runner.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load environments: %w", err)
	}
	for _, env := range envs {
		if env.Schedule == "" {
			continue
		}
		if err := s.schedule(env); err != nil {
			// One bad schedule must not keep the others from running
			s.logger.Warn().Err(err).Str("environment_id", env.ID).Msg("Failed to schedule environment")
		}
	}

	s.cron.Start()
	s.jobMu.Lock()
	s.running = true
	count := len(s.jobs)
	s.jobMu.Unlock()

	s.logger.Info().Int("scheduled", count).Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for an in-flight run to finish
func (s *Service) Stop() error {
	s.jobMu.Lock()
	if !s.running {
		s.jobMu.Unlock()
		return nil
	}
	s.running = false
	s.jobMu.Unlock()

	s.cancel()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn().Msg("Scheduled run did not finish within timeout")
	}

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	return s.running
}

// EnvironmentSaved reschedules env after a create or update
func (s *Service) EnvironmentSaved(env *models.Environment) {
	s.unschedule(env.ID)
	if env.Schedule == "" {
		return
	}
	if err := s.schedule(env); err != nil {
		s.logger.Warn().Err(err).Str("environment_id", env.ID).Msg("Failed to reschedule environment")
	}
}

// EnvironmentDeleted drops the schedule of a removed environment
func (s *Service) EnvironmentDeleted(id string) {
	s.unschedule(id)
}

func (s *Service) schedule(env *models.Environment) error {
	id := env.ID
	cronID, err := s.cron.AddFunc(env.Schedule, func() {
		s.executeJob(id)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", env.Schedule, err)
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	s.jobs[id] = &jobEntry{
		envID:    id,
		name:     env.Name,
		schedule: env.Schedule,
		cronID:   cronID,
		lastRun:  env.LastRunAt,
	}

	s.logger.Info().
		Str("environment_id", id).
		Str("schedule", env.Schedule).
		Msg("Environment scheduled")
	return nil
}

func (s *Service) unschedule(id string) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()
	entry, exists := s.jobs[id]
	if !exists {
		return
	}
	s.cron.Remove(entry.cronID)
	delete(s.jobs, id)
	s.logger.Debug().Str("environment_id", id).Msg("Environment unscheduled")
}

// Statuses returns every scheduled environment ordered by name
func (s *Service) Statuses() []JobStatus {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	next := make(map[cron.EntryID]time.Time)
	for _, e := range s.cron.Entries() {
		next[e.ID] = e.Next
	}

	statuses := make([]JobStatus, 0, len(s.jobs))
	for _, entry := range s.jobs {
		status := JobStatus{
			EnvironmentID: entry.envID,
			Name:          entry.name,
			Schedule:      entry.schedule,
			LastRun:       entry.lastRun,
			IsRunning:     entry.isRunning,
			LastError:     entry.lastError,
		}
		if t, ok := next[entry.cronID]; ok && !t.IsZero() {
			status.NextRun = &t
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Name == statuses[j].Name {
			return statuses[i].EnvironmentID < statuses[j].EnvironmentID
		}
		return statuses[i].Name < statuses[j].Name
	})
	return statuses
}

// executeJob runs one environment with panic recovery and status tracking
func (s *Service) executeJob(id string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("environment_id", id).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("PANIC RECOVERED in scheduled run")

			s.jobMu.Lock()
			if entry, exists := s.jobs[id]; exists {
				entry.isRunning = false
				entry.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	s.globalMu.Lock()
	defer s.globalMu.Unlock()

	s.jobMu.Lock()
	entry, exists := s.jobs[id]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().Str("environment_id", id).Msg("Scheduled environment no longer registered")
		return
	}
	entry.isRunning = true
	s.jobMu.Unlock()

	start := time.Now()
	s.logger.Info().Str("environment_id", id).Msg("Scheduled run started")

	resp, err := s.runner.Run(s.ctx, id)

	finished := time.Now()
	s.jobMu.Lock()
	entry.isRunning = false
	entry.lastRun = &finished
	if err != nil {
		entry.lastError = err.Error()
	} else {
		entry.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Str("environment_id", id).
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Scheduled run failed")
		return
	}
	s.logger.Info().
		Str("environment_id", id).
		Int("passed", resp.Summary.Passed).
		Int("total", resp.Summary.Total).
		Dur("duration", time.Since(start)).
		Msg("Scheduled run completed")
}
