// Package jobs holds asynq task definitions, their handlers and the worker
// wrapper.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskNotifyDispatch delivers a stored decision notification.
	TaskNotifyDispatch = "notify:dispatch"
	// TaskRecommendWarmup pre-assembles recommended loads into the cache.
	TaskRecommendWarmup = "recommend:warmup"
)

// NotifyDispatchPayload identifies the notification to deliver.
type NotifyDispatchPayload struct {
	NotificationID  uuid.UUID `json:"notification_id"`
	RecipientUserID int64     `json:"recipient_user_id"`
	Message         string    `json:"message"`
}

// NewNotifyDispatchTask constructs an Asynq task.
func NewNotifyDispatchTask(payload NotifyDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotifyDispatch, data), nil
}

// NotifyDispatchJob pushes stored notifications to connected dashboards via
// a per-user Redis channel. The stored row stays the source of truth; a
// missed publish is picked up by the client's notification poll.
type NotifyDispatchJob struct {
	Redis  *redis.Client
	Logger *slog.Logger
}

// NewNotifyDispatchJob wires dependencies for the dispatch handler.
func NewNotifyDispatchJob(client *redis.Client, logger *slog.Logger) *NotifyDispatchJob {
	return &NotifyDispatchJob{Redis: client, Logger: logger}
}

// UserChannel names the pub/sub channel for one recipient.
func UserChannel(recipientUserID int64) string {
	return fmt.Sprintf("notify:user:%d", recipientUserID)
}

// Handle processes TaskNotifyDispatch tasks.
func (j *NotifyDispatchJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("notify dispatch: handler not configured")
	}
	var payload NotifyDispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if j.Redis == nil {
		j.Logger.Info("notification dispatched (no transport)",
			slog.Int64("recipient", payload.RecipientUserID))
		return nil
	}
	err := j.Redis.Publish(ctx, UserChannel(payload.RecipientUserID), t.Payload()).Err()
	if err != nil {
		j.Logger.Error("publish notification", slog.Any("error", err))
		return err
	}
	return nil
}
