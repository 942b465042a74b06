package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/screener/internal/common"
	"github.com/ternarybob/screener/internal/criteria"
	"github.com/ternarybob/screener/internal/handlers"
	"github.com/ternarybob/screener/internal/metrics"
	"github.com/ternarybob/screener/internal/models"
	"github.com/ternarybob/screener/internal/report"
	"github.com/ternarybob/screener/internal/services/environments"
	"github.com/ternarybob/screener/internal/services/scheduler"
	"github.com/ternarybob/screener/internal/storage"
	"github.com/ternarybob/screener/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	StorageManager *badger.Manager
	Pipeline       *Pipeline
	Metrics        *metrics.Collector
	BaseCriteria   models.CriteriaConfig
	Reports        *report.Writer

	// Services
	EnvironmentService *environments.Service
	SchedulerService   *scheduler.Service

	// HTTP handlers
	APIHandler         *handlers.APIHandler
	EnvironmentHandler *handlers.EnvironmentHandler
	ScreenHandler      *handlers.ScreenHandler
	ReportHandler      *handlers.ReportHandler
	WSHandler          *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initDatabase(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// WebSocket handler is created first so every screening result can be streamed
	app.WSHandler = handlers.NewWebSocketHandler(app.Logger)

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("cache_backend", cfg.Cache.Backend).
		Int("base_criteria", len(app.BaseCriteria)).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Bool("metrics_enabled", cfg.Metrics.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}
	a.StorageManager = storageManager
	a.Logger.Debug().Str("path", a.Config.Storage.Badger.Path).Msg("Storage layer initialized")
	return nil
}

// initServices initializes the fetch pipeline, environment service and scheduler
func (a *App) initServices() error {
	if a.Config.Metrics.Enabled {
		a.Metrics = metrics.NewCollector()
	}

	pipeline, err := NewPipeline(a.ctx, a.Config, a.Logger, a.StorageManager, a.Metrics)
	if err != nil {
		return err
	}
	a.Pipeline = pipeline

	base, err := criteria.Resolve(a.Config.Screener.Criteria, a.Config.Screener.CriteriaFile, a.Config.Screener.Rules)
	if err != nil {
		return fmt.Errorf("failed to load base criteria: %w", err)
	}
	if err := criteria.Validate(base); err != nil {
		a.Logger.Warn().Err(err).Msg("Base criteria contain entries that will be skipped")
	}
	a.BaseCriteria = base

	formats, err := report.ParseFormats(a.Config.Reports.Formats)
	if err != nil {
		return fmt.Errorf("invalid report formats: %w", err)
	}
	a.Reports = report.NewWriter(a.Config.Reports.Dir, formats, a.Logger)

	a.EnvironmentService = environments.NewService(
		a.StorageManager.EnvironmentStorage(),
		a.Pipeline.Acquirer,
		a.Reports,
		a.BaseCriteria,
		a.Logger,
		environments.WithResultHandler(a.onResult),
	)

	if a.Config.Scheduler.Enabled {
		a.SchedulerService = scheduler.NewService(a.EnvironmentService, a.Logger)
		a.EnvironmentService.Subscribe(a.SchedulerService)
		if err := a.SchedulerService.Start(a.ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	var schedules handlers.ScheduleLister
	if a.SchedulerService != nil {
		schedules = a.SchedulerService
	}

	a.APIHandler = handlers.NewAPIHandler(a.Pipeline.Cache, schedules, a.Logger)
	a.EnvironmentHandler = handlers.NewEnvironmentHandler(a.EnvironmentService, a.Logger)
	a.ScreenHandler = handlers.NewScreenHandler(a.Pipeline.Acquirer, a.BaseCriteria, a.onResult, a.Logger)
	a.ReportHandler = handlers.NewReportHandler(a.Reports, a.Logger)
}

// onResult streams a result to websocket clients and records it
func (a *App) onResult(result models.ScreeningResult) {
	a.WSHandler.BroadcastResult(result)
	if a.Metrics != nil {
		a.Metrics.Screened(result)
	}
}

// Close closes all application resources
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.Pipeline != nil {
		if err := a.Pipeline.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close fetch pipeline")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
