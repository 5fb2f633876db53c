package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"ReviewPulse/internal/config"
	"ReviewPulse/internal/infrastructure/httpapi"
	"ReviewPulse/internal/infrastructure/registry"
	"ReviewPulse/internal/infrastructure/report"
	"ReviewPulse/internal/infrastructure/scheduler"
	"ReviewPulse/internal/infrastructure/sentiment"
	"ReviewPulse/internal/infrastructure/storage"
	"ReviewPulse/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    zerolog.Logger
	db        *sql.DB
	scheduler *usecase.Scheduler
	admin     *httpapi.Server
}

// New builds a runnable application instance.
func New(cfg config.Config, logger zerolog.Logger) (*Application, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	var notifier report.Notifier
	if cfg.Alerts.Telegram.BotToken != "" {
		notifier = report.NewTelegramNotifier(cfg.Alerts.Telegram.BotToken, cfg.Alerts.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Tenants:    registry.NewSchoolRegistry(db),
		Reviews:    storage.NewReviewStore(db),
		Classifier: sentiment.NewClient(cfg.Classifier, logger.With().Str("component", "classifier").Logger()),
		Summaries:  storage.NewAnalysisRepository(db),
		Sink:       report.NewSink(logger.With().Str("component", "report").Logger(), notifier),
		Settings: usecase.AggregateSettings{
			IssueRatioThreshold: cfg.Analysis.IssueRatioThreshold,
			MinSampleSize:       cfg.Analysis.MinSampleSize,
			EvidenceCap:         cfg.Analysis.EvidenceCap,
		},
		Workers: cfg.Scheduler.Workers,
		Logger:  logger.With().Str("component", "pipeline").Logger(),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	sched := usecase.NewScheduler(driver, pipeline)

	admin := httpapi.NewServer(logger.With().Str("component", "admin").Logger(), httpapi.Config{
		Addr:     cfg.Admin.Address,
		Trigger:  sched,
		DB:       db,
		Location: cfg.Scheduler.Location(),
	})

	return &Application{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		scheduler: sched,
		admin:     admin,
	}, nil
}

// Run starts the cron loop and the admin server, then blocks until ctx
// is canceled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() {
		if err := a.scheduler.Stop(context.Background()); err != nil {
			a.logger.Error().Err(err).Msg("scheduler stop failed")
		}
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("database close failed")
		}
	}()

	return a.admin.Start(ctx)
}
