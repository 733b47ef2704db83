package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/app"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/catalog"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/notify"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/cache"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/platform/db"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/recommend"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/requests"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/review"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/shared"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)

	notifyRepo := notify.NewRepository(dbpool)
	notifyService := notify.NewService(notifyRepo, jobsClient, logger)
	notifyHandler := notify.NewHandler(logger, notifyService)

	requestRepo := requests.NewRepository(dbpool)
	requestService := requests.NewService(requestRepo, approvalRecorder, notifyService, logger)
	requestHandler := requests.NewHandler(logger, requestService, approvalRecorder)

	catalogCache := catalog.NewCache(redisClient, cfg.CatalogCacheTTL)
	catalogRepo := catalog.NewRepository(dbpool)
	catalogService := catalog.NewService(catalogRepo, catalogCache)
	catalogHandler := catalog.NewHandler(logger, catalogService)

	recommendCache := catalog.NewCache(redisClient, cfg.RecommendCacheTTL)
	recommendService := recommend.NewService(catalogService, recommendCache)
	recommendHandler := recommend.NewHandler(logger, recommendService)

	workspace := review.NewWorkspace(requestService, logger)
	reviewHandler := review.NewHandler(logger, workspace, requestService)

	router := app.NewRouter(app.RouterParams{
		Logger:    logger,
		Config:    cfg,
		Requests:  requestHandler,
		Review:    reviewHandler,
		Recommend: recommendHandler,
		Catalog:   catalogHandler,
		Notify:    notifyHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
