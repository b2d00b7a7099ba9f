package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	app "github.com/mohammadpnp/jobposting-import/internal/application/jobimport"
	"github.com/mohammadpnp/jobposting-import/internal/config"
	"github.com/mohammadpnp/jobposting-import/internal/infrastructure/db/migration"
	infrafile "github.com/mohammadpnp/jobposting-import/internal/infrastructure/file"
	"github.com/mohammadpnp/jobposting-import/internal/infrastructure/repository"
	httpecho "github.com/mohammadpnp/jobposting-import/internal/interfaces/http/echo"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// App is the wired process: HTTP server plus the background import runner.
type App struct {
	Server    *echo.Echo
	Runner    *app.Runner
	Scheduler *app.Scheduler

	pool *pgxpool.Pool
}

// NewApp connects to the database and wires every component. Import runs are
// bound to base and stop when it is cancelled.
func NewApp(base context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if cfg.Import.RunMigrations {
		if err := migration.Run(cfg.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	pool, err := pgxpool.New(base, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	jobs := repository.NewImportJobRepository(db)
	directory := repository.NewDirectoryRepository(db)
	postings := repository.NewPostingRepository(pool)
	store := infrafile.NewLocalStore(cfg.Import.StorageDir, cfg.MaxFileBytes())

	orchestrator := app.NewOrchestrator(jobs, store, infrafile.NewParser(), directory, postings, app.OrchestratorConfig{
		MaxStoredErrors: cfg.Import.MaxStoredErrors,
		DefaultRegion:   cfg.Import.DefaultRegion,
	}, logger)
	runner := app.NewRunner(base, orchestrator, logger)
	scheduler := app.NewScheduler(jobs, runner, app.SchedulerConfig{
		PollInterval: cfg.Import.SchedulerInterval,
	}, logger)

	controller := app.NewController(
		jobs,
		store,
		postings,
		app.NewEntityResolver(directory, cfg.Import.DefaultRegion),
		runner,
		app.ControllerConfig{DeleteWindow: cfg.Import.DeleteWindow},
		logger,
	)

	return &App{
		Server:    NewHTTPServer(httpecho.NewImportHandler(controller, logger), cfg.Import.MaxFileMB, logger),
		Runner:    runner,
		Scheduler: scheduler,
		pool:      pool,
	}, nil
}

func (a *App) Close() {
	a.pool.Close()
}
