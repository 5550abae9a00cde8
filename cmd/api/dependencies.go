package api

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/rkotari/loyalty-import/internal/domain/ingest/handler"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/repository"
	"github.com/rkotari/loyalty-import/internal/domain/ingest/service"
	"github.com/rkotari/loyalty-import/pkg/config"
	"github.com/rkotari/loyalty-import/pkg/db"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	IngestRepo    repository.IngestRepository
	ImportService *service.ImportService
	IngestHandler *handler.IngestHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	deps.IngestRepo = repository.NewPostgresIngestRepository(deps.DB.Pool)
	deps.ImportService = service.NewImportService(deps.IngestRepo, logger)

	var limiter *rate.Limiter
	if cfg.Server.RateLimitPerSecond > 0 && cfg.Server.RateLimitBurst > 0 {
		limiter = rate.NewLimiter(
			rate.Limit(float64(cfg.Server.RateLimitPerSecond)),
			cfg.Server.RateLimitBurst,
		)
	}
	deps.IngestHandler = handler.NewIngestHandler(deps.ImportService, logger, limiter)

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase initializes the database connection and runs migrations
func (d *Dependencies) initDatabase() error {
	database, err := db.New(db.Config{
		DSN:             d.Config.Database.DSN(),
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 10 * time.Minute,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}
