package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/jobs"
)

// Dispatcher enqueues delivery of a stored notification. *jobs.Client
// satisfies it.
type Dispatcher interface {
	EnqueueNotifyDispatch(ctx context.Context, payload jobs.NotifyDispatchPayload) (*asynq.TaskInfo, error)
}

// Service stores and serves decision notifications.
type Service struct {
	repo       Repository
	dispatcher Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs the notification service.
func NewService(repo Repository, dispatcher Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Emit stores a notification and enqueues its delivery. The stored row is
// authoritative; a failed enqueue is logged and the poll endpoint picks the
// notification up regardless.
func (s *Service) Emit(ctx context.Context, recipientUserID int64, message string) error {
	n := Notification{
		ID:              uuid.New(),
		RecipientUserID: recipientUserID,
		Message:         message,
		Status:          StatusUnread,
		CreatedOn:       s.now(),
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	if s.dispatcher != nil {
		_, err := s.dispatcher.EnqueueNotifyDispatch(ctx, jobs.NotifyDispatchPayload{
			NotificationID:  n.ID,
			RecipientUserID: n.RecipientUserID,
			Message:         n.Message,
		})
		if err != nil {
			s.logger.Warn("enqueue notification dispatch",
				slog.String("notification_id", n.ID.String()), slog.Any("error", err))
		}
	}
	return nil
}

// List returns the recipient's recent notifications, newest first.
func (s *Service) List(ctx context.Context, recipientUserID int64, limit int) ([]Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientUserID, limit)
}

// MarkRead flips one notification to Read.
func (s *Service) MarkRead(ctx context.Context, id uuid.UUID, recipientUserID int64) error {
	return s.repo.MarkRead(ctx, id, recipientUserID)
}
