package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/app"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/catalog"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/cache"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/db"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/recommend"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, catalogCache)

	recommendCache := catalog.NewCache(redisClient, cfg.RecommendCacheTTL)
	recommendService := recommend.NewService(catalogService, recommendCache)

	dispatchJob := jobs.NewNotifyDispatchJob(redisClient, logger)
	warmupJob := jobs.NewRecommendWarmupJob(recommendService, catalogService, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskNotifyDispatch, Handler: dispatchJob.Handle},
			{Type: jobs.TaskRecommendWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			// After the nightly baseline refresh lands.
			{Spec: "30 5 * * *", Task: jobs.NewRecommendWarmupTask()},
		},
	})
	if err != nil {
		logger.Error("configure worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
