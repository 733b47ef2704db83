package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CodeWithAshafak/Load-Request-Approval-sub000/internal/requests"
)

// memoryRequestRepo is a thread-safe in-memory requests.Repository for
// exercising the workspace against the real lifecycle service.
type memoryRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*requests.LoadRequest
	counters map[string]int
}

type memoryRequestTx struct {
	repo *memoryRequestRepo
}

func newMemoryRequestRepo() *memoryRequestRepo {
	return &memoryRequestRepo{
		requests: make(map[uuid.UUID]*requests.LoadRequest),
		counters: make(map[string]int),
	}
}

func (r *memoryRequestRepo) Get(ctx context.Context, id uuid.UUID) (*requests.LoadRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, requests.ErrNotFound
	}
	return req.Clone(), nil
}

func (r *memoryRequestRepo) List(ctx context.Context, filter requests.ListFilter) ([]requests.LoadRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []requests.LoadRequest
	for _, req := range r.requests {
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		if filter.LSRID != nil && req.LSRID != *filter.LSRID {
			continue
		}
		out = append(out, *req.Clone())
	}
	return out, len(out), nil
}

func (r *memoryRequestRepo) WithTx(ctx context.Context, fn func(context.Context, requests.TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx, &memoryRequestTx{repo: r})
}

func (t *memoryRequestTx) GenerateNumber(ctx context.Context, at time.Time) (string, error) {
	period := at.Format("200601")
	t.repo.counters[period]++
	return fmt.Sprintf("LR-%s-%04d", period, t.repo.counters[period]), nil
}

func (t *memoryRequestTx) Insert(ctx context.Context, req requests.LoadRequest) error {
	t.repo.requests[req.ID] = req.Clone()
	return nil
}

func (t *memoryRequestTx) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	req, ok := t.repo.requests[id]
	if !ok {
		return requests.ErrNotFound
	}
	applyRequestFields(req, updates)
	return nil
}

func (t *memoryRequestTx) ReplaceLines(ctx context.Context, id uuid.UUID, commercial []requests.CommercialLine, posm []requests.PosmLine) error {
	req, ok := t.repo.requests[id]
	if !ok {
		return requests.ErrNotFound
	}
	req.CommercialProducts = append([]requests.CommercialLine(nil), commercial...)
	req.PosmItems = append([]requests.PosmLine(nil), posm...)
	return nil
}

func (t *memoryRequestTx) UpdateStatus(ctx context.Context, id uuid.UUID, from, to requests.Status, updates map[string]interface{}) (bool, error) {
	req, ok := t.repo.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	applyRequestFields(req, updates)
	return true, nil
}

func applyRequestFields(req *requests.LoadRequest, updates map[string]interface{}) {
	for col, val := range updates {
		switch col {
		case "route":
			req.Route = val.(string)
		case "priority":
			req.Priority = requests.Priority(val.(string))
		case "notes":
			notes := val.(string)
			req.Notes = &notes
		case "expected_delivery_date":
			d := val.(time.Time)
			req.ExpectedDeliveryDate = &d
		case "submitted_at":
			at := val.(time.Time)
			req.SubmittedAt = &at
		case "decided_at":
			at := val.(time.Time)
			req.DecidedAt = &at
		case "decision_reason":
			reason := val.(string)
			req.DecisionReason = &reason
		case "approver_id":
			approver := val.(int64)
			req.ApproverID = &approver
		}
	}
}
