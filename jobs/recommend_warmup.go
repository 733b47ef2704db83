package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/catalog"
	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/recommend"
)

// NewRecommendWarmupTask constructs the parameterless warmup task.
func NewRecommendWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskRecommendWarmup, nil)
}

// RecommendWarmupJob pre-assembles every active representative's recommended
// load so the first dashboard hit after the nightly baseline refresh is
// served from cache.
type RecommendWarmupJob struct {
	Recommend *recommend.Service
	Catalog   *catalog.Service
	Logger    *slog.Logger
}

// NewRecommendWarmupJob wires dependencies for the warmup handler.
func NewRecommendWarmupJob(recommendSvc *recommend.Service, catalogSvc *catalog.Service, logger *slog.Logger) *RecommendWarmupJob {
	return &RecommendWarmupJob{Recommend: recommendSvc, Catalog: catalogSvc, Logger: logger}
}

// Handle processes TaskRecommendWarmup tasks.
func (j *RecommendWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("recommend warmup: handler not configured")
	}
	ids, err := j.Catalog.ActiveLSRIDs(ctx)
	if err != nil {
		j.Logger.Error("load warmup representatives", slog.Any("error", err))
		return err
	}
	var failed int
	for _, lsrID := range ids {
		if err := j.Recommend.Warm(ctx, lsrID); err != nil {
			failed++
			j.Logger.Warn("warm recommended load",
				slog.Int64("lsr_id", lsrID), slog.Any("error", err))
		}
	}
	j.Logger.Info("recommend warmup complete",
		slog.Int("representatives", len(ids)), slog.Int("failed", failed))
	return nil
}
