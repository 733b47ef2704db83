package requests

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/shared"
)

// Notifier emits the decision signal to the owning representative. Delivery is
// fire and forget: a failed emit is logged and never fails the transition.
type Notifier interface {
	Emit(ctx context.Context, recipientUserID int64, message string) error
}

// ApprovalLogger records approval history entries.
type ApprovalLogger interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
}

// Service orchestrates the load request lifecycle.
type Service struct {
	repo      Repository
	validate  *validator.Validate
	approvals ApprovalLogger
	notifier  Notifier
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs the lifecycle service.
func NewService(repo Repository, approvals ApprovalLogger, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		validate:  validator.New(),
		approvals: approvals,
		notifier:  notifier,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Create opens a new DRAFT request for the representative.
func (s *Service) Create(ctx context.Context, lsrID int64, req CreateRequest) (*LoadRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate create: %w", err)
	}

	commercial := toCommercialLines(req.CommercialProducts)
	posm := toPosmLines(req.PosmItems)
	if err := ValidateLines(commercial, posm); err != nil {
		return nil, err
	}

	request := LoadRequest{
		ID:                   uuid.New(),
		LSRID:                lsrID,
		Status:               StatusDraft,
		Route:                req.Route,
		Priority:             req.Priority,
		Notes:                req.Notes,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		CommercialProducts:   commercial,
		PosmItems:            posm,
		CreatedAt:            s.now(),
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		number, err := tx.GenerateNumber(ctx, request.CreatedAt)
		if err != nil {
			return err
		}
		request.RequestNumber = number
		return tx.Insert(ctx, request)
	})
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return s.repo.Get(ctx, request.ID)
}

// Update mutates metadata and lines of a DRAFT request owned by the caller.
func (s *Service) Update(ctx context.Context, id uuid.UUID, lsrID int64, req UpdateRequest) (*LoadRequest, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("validate update: %w", err)
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.LSRID != lsrID {
		return nil, ErrNotOwner
	}
	if err := CanUpdate(existing); err != nil {
		return nil, err
	}

	var commercial []CommercialLine
	var posm []PosmLine
	replaceLines := req.CommercialProducts != nil || req.PosmItems != nil
	if replaceLines {
		commercial = existing.CommercialProducts
		posm = existing.PosmItems
		if req.CommercialProducts != nil {
			commercial = toCommercialLines(*req.CommercialProducts)
		}
		if req.PosmItems != nil {
			posm = toPosmLines(*req.PosmItems)
		}
		if err := ValidateLines(commercial, posm); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]interface{})
	if req.Route != nil {
		updates["route"] = *req.Route
	}
	if req.Priority != nil {
		updates["priority"] = string(*req.Priority)
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if req.ExpectedDeliveryDate != nil {
		updates["expected_delivery_date"] = *req.ExpectedDeliveryDate
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if len(updates) > 0 {
			if err := tx.UpdateFields(ctx, id, updates); err != nil {
				return err
			}
		}
		if replaceLines {
			return tx.ReplaceLines(ctx, id, commercial, posm)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	return s.repo.Get(ctx, id)
}

// Submit transitions DRAFT -> SUBMITTED. An empty request never leaves DRAFT.
func (s *Service) Submit(ctx context.Context, id uuid.UUID, lsrID int64) (*LoadRequest, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.LSRID != lsrID {
		return nil, ErrNotOwner
	}
	if err := CanSubmit(existing); err != nil {
		return nil, err
	}

	submittedAt := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.UpdateStatus(ctx, id, StatusDraft, StatusSubmitted,
			map[string]interface{}{"submitted_at": submittedAt})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: request left DRAFT concurrently", ErrNotDraft)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordApproval(ctx, id, lsrID, shared.ApprovalSubmit, "")
	return s.repo.Get(ctx, id)
}

// Approve transitions SUBMITTED -> APPROVED. When modified lines are present
// they overwrite both collections, with totals recomputed, before commit.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, approverID int64, modified *ModifiedLines) (*LoadRequest, error) {
	if modified != nil {
		if err := s.validate.Struct(modified); err != nil {
			return nil, fmt.Errorf("validate modified lines: %w", err)
		}
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanDecide(existing); err != nil {
		return nil, err
	}

	var commercial []CommercialLine
	var posm []PosmLine
	if modified != nil {
		commercial, posm = modified.toModel()
		if len(commercial)+len(posm) == 0 {
			return nil, ErrEmptyLines
		}
		if err := ValidateLines(commercial, posm); err != nil {
			return nil, err
		}
	}

	decidedAt := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.UpdateStatus(ctx, id, StatusSubmitted, StatusApproved, map[string]interface{}{
			"decided_at":  decidedAt,
			"approver_id": approverID,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: decided by another actor", ErrAlreadyProcessed)
		}
		if modified != nil {
			return tx.ReplaceLines(ctx, id, commercial, posm)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordApproval(ctx, id, approverID, shared.ApprovalApprove, "")
	s.notifyDecision(ctx, existing, StatusApproved, "")
	return s.repo.Get(ctx, id)
}

// Reject transitions SUBMITTED -> REJECTED. The reason must be non-blank and
// is checked before any persistence work.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, approverID int64, reason string) (*LoadRequest, error) {
	if err := ValidateReason(reason); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanDecide(existing); err != nil {
		return nil, err
	}

	decidedAt := s.now()
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		ok, err := tx.UpdateStatus(ctx, id, StatusSubmitted, StatusRejected, map[string]interface{}{
			"decided_at":      decidedAt,
			"approver_id":     approverID,
			"decision_reason": reason,
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: decided by another actor", ErrAlreadyProcessed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordApproval(ctx, id, approverID, shared.ApprovalReject, reason)
	s.notifyDecision(ctx, existing, StatusRejected, reason)
	return s.repo.Get(ctx, id)
}

// BulkApprove runs independent approvals serially and reports per-item
// outcomes. Partial failure is expected; failed requests stay SUBMITTED.
func (s *Service) BulkApprove(ctx context.Context, ids []uuid.UUID, approverID int64) BulkResult {
	result := BulkResult{Succeeded: []uuid.UUID{}, Failed: []BulkFailed{}}
	for _, id := range ids {
		if _, err := s.Approve(ctx, id, approverID, nil); err != nil {
			result.Failed = append(result.Failed, BulkFailed{ID: id, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

// Get returns one request.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*LoadRequest, error) {
	return s.repo.Get(ctx, id)
}

// List returns requests matching the filter.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]LoadRequest, int, error) {
	if err := s.validate.Struct(filter); err != nil {
		return nil, 0, fmt.Errorf("validate filter: %w", err)
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) recordApproval(ctx context.Context, id uuid.UUID, actorID int64, action shared.ApprovalAction, note string) {
	if s.approvals == nil {
		return
	}
	err := s.approvals.Record(ctx, shared.ApprovalLog{
		RequestID: id,
		ActorID:   actorID,
		Action:    action,
		Note:      note,
	})
	if err != nil {
		s.logger.Warn("record approval history",
			slog.String("request_id", id.String()), slog.Any("error", err))
	}
}

func (s *Service) notifyDecision(ctx context.Context, req *LoadRequest, outcome Status, reason string) {
	if s.notifier == nil {
		return
	}
	var message string
	switch outcome {
	case StatusApproved:
		message = fmt.Sprintf("Load request %s has been approved", req.RequestNumber)
	case StatusRejected:
		message = fmt.Sprintf("Load request %s has been rejected: %s", req.RequestNumber, reason)
	default:
		return
	}
	if err := s.notifier.Emit(ctx, req.LSRID, message); err != nil {
		s.logger.Warn("emit decision notification",
			slog.String("request_number", req.RequestNumber), slog.Any("error", err))
	}
}
