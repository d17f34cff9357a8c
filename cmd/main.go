package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"stockdesk/internal/batch"
	"stockdesk/internal/caching"
	"stockdesk/internal/config"
	"stockdesk/internal/handlers"
	"stockdesk/internal/jobs"
	"stockdesk/internal/jobs/background"
	"stockdesk/internal/logging"
	"stockdesk/internal/metrics"
	"stockdesk/internal/middleware"
	"stockdesk/internal/movement"
	"stockdesk/internal/repositories"
	"stockdesk/internal/services"
	"stockdesk/internal/storage"
	"stockdesk/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("stockdesk stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting stockdesk", zap.String("version", version), zap.Stringer("config", cfg))

	// Database connection
	pool, err := database.NewPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	// Report storage
	var reports storage.ReportStore
	minioStore, err := storage.NewMinioReportStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.ReportBucket, cfg.MinioUseSSL)
	if err != nil {
		logger.Warn("batch reports disabled", zap.Error(err))
	} else if err := minioStore.EnsureBucketExists(ctx); err != nil {
		logger.Warn("batch reports disabled", zap.String("bucket", cfg.ReportBucket), zap.Error(err))
	} else {
		reports = minioStore
	}

	tuning := cfg.Tuning
	m := metrics.New()
	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger.Named("cache"))

	// Repositories and services
	itemRepo := repositories.NewItemRepo(pool)
	movementRepo := repositories.NewMovementRepo(pool)
	stockSvc := services.NewStockService(itemRepo, movementRepo, cacheSvc, m, services.StockServiceConfig{
		ItemsTTL: tuning.ItemsTTL(),
		StatsTTL: tuning.StatsTTL(),
	}, logger.Named("stock"))

	machine := movement.NewMachine(stockSvc, logger.Named("movement"))
	orchestrator := batch.NewOrchestrator(machine, batch.ItemSourceFunc(stockSvc.LatestItems), batch.Options{
		Concurrency: tuning.Batch.Concurrency,
		Invalidator: stockSvc,
		Recorder:    m,
		Logger:      logger.Named("batch"),
	})

	// Background jobs
	statsRefresh := jobs.NewStatsRefreshService(stockSvc, tuning.Jobs.StatsConcurrency, logger.Named("jobs"))
	scheduler, err := background.NewJobScheduler(statsRefresh, tuning.StatsRefreshInterval(), logger.Named("scheduler"))
	if err != nil {
		return fmt.Errorf("create job scheduler: %w", err)
	}
	cacheFlush := jobs.NewCacheFlushService(cacheSvc, logger.Named("jobs"))
	if err := scheduler.AddJob(jobs.CacheFlushJobName, jobs.CacheFlushInterval, cacheFlush.ScheduledFlush, context.Background()); err != nil {
		return fmt.Errorf("register cache flush job: %w", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			logger.Warn("failed to stop scheduler", zap.Error(err))
		}
	}()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLogger(logger.Named("http")))
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())
	e.Use(m.Middleware())

	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	// Health and metrics endpoints
	var storagePinger handlers.Pinger
	if reports != nil {
		storagePinger = reports
	}
	handlers.NewHealthHandlers(pool, cacheSvc, storagePinger, version).Register(e)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// API routes
	v1 := e.Group("/v1")
	v1.Use(versionMiddleware.VersionHeader("v1"))
	handlers.NewStockHandlers(stockSvc, machine, logger.Named("handlers")).Register(v1)
	handlers.NewBatchHandlers(orchestrator, reports, logger.Named("handlers")).Register(v1)
	handlers.NewJobHandlers(scheduler).Register(v1)

	// Start server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.Port))
		if err := e.Start(fmt.Sprintf(":%d", cfg.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
